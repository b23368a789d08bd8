// Package httpapi serves the derived application list over HTTP: a JSON
// snapshot and a server-sent event stream of changes.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoCodeAlone/tyeapps"
)

// Route paths.
const (
	PathApplications       = "/applications"
	PathApplicationsStream = "/applications/stream"
	PathTasks              = "/tasks"
	PathHealth             = "/healthz"
)

// sseEventApplications names the server-sent event carrying a list.
const sseEventApplications = "applications"

type handler struct {
	provider tyeapps.ApplicationProvider
	monitor  tyeapps.TaskMonitor
	logger   tyeapps.Logger
}

// NewHandler builds the router. monitor may be nil, in which case /tasks is
// not mounted.
func NewHandler(provider tyeapps.ApplicationProvider, monitor tyeapps.TaskMonitor, logger tyeapps.Logger) http.Handler {
	if logger == nil {
		logger = tyeapps.NopLogger()
	}
	h := &handler{provider: provider, monitor: monitor, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get(PathHealth, h.health)
	r.Get(PathApplications, h.listApplications)
	r.Get(PathApplicationsStream, h.streamApplications)
	if monitor != nil {
		r.Get(PathTasks, h.listTasks)
	}
	return r
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "requestID", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r)
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listApplications(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.provider.Applications())
}

func (h *handler) listTasks(w http.ResponseWriter, _ *http.Request) {
	tasks := h.monitor.Tasks()
	if tasks == nil {
		tasks = []tyeapps.MonitoredTask{}
	}
	h.writeJSON(w, http.StatusOK, tasks)
}

// streamApplications sends the current list, then every new list, until the
// client goes away. A slow client only ever sees the latest list.
func (h *handler) streamApplications(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates := make(chan []tyeapps.Application, 1)
	sub := h.provider.ApplicationsChanged(func(apps []tyeapps.Application) {
		select {
		case updates <- apps:
		default:
			// replace the stale list the client has not read yet
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- apps:
			default:
			}
		}
	})
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, h.provider.Applications()); err != nil {
		h.logger.Debug("Stream write failed", "error", err)
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case apps := <-updates:
			if err := writeEvent(w, apps); err != nil {
				h.logger.Debug("Stream write failed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, apps []tyeapps.Application) error {
	data, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("failed to encode applications: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", sseEventApplications, data)
	return err
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}
