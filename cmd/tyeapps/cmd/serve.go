package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/tyeapps"
	"github.com/GoCodeAlone/tyeapps/httpapi"
	"github.com/GoCodeAlone/tyeapps/taskfile"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var configFile string
	flags := flagFeeder{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch the task manifest and serve the application list over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.cmd = cmd
			cfg, err := loadServeConfig(configFile, flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, newLogger(cmd.ErrOrStderr(), cfg.LogLevel))
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file (.yaml or .toml)")
	cmd.Flags().StringVarP(&flags.tasksFile, "tasks", "t", "", "Task manifest path")
	cmd.Flags().StringVarP(&flags.listen, "listen", "l", "", "HTTP listen address")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	return cmd
}

// runServe wires monitor, provider and HTTP server and blocks until ctx is
// done.
func runServe(ctx context.Context, cfg *ServeConfig, logger tyeapps.Logger) error {
	monitor, err := taskfile.New(cfg.TasksFile,
		taskfile.WithLogger(logger),
		taskfile.WithResync(cfg.ResyncSpec()),
	)
	if err != nil {
		return err
	}
	defer monitor.Close()

	subject := tyeapps.NewObservableSubject(logger)
	if err := subject.RegisterObserver(newChangeLogger(logger), tyeapps.EventTypeApplicationsChanged); err != nil {
		return err
	}

	provider, err := tyeapps.NewTaskBasedApplicationProvider(monitor,
		tyeapps.WithLogger(logger),
		tyeapps.WithProviderConfig(&cfg.Provider),
		tyeapps.WithEventSubject(subject),
	)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := monitor.Start(ctx); err != nil {
		return err
	}

	server := httpapi.NewServer(cfg.Listen, httpapi.NewHandler(provider, monitor, logger), logger)
	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop HTTP server", "error", err)
	}
	if err := monitor.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop task file monitor", "error", err)
	}
	subject.Wait()
	return nil
}

// newChangeLogger logs every applications-changed event.
func newChangeLogger(logger tyeapps.Logger) tyeapps.Observer {
	return tyeapps.NewFunctionalObserver("change-logger", func(ctx context.Context, event tyeapps.CloudEvent) error {
		data, err := tyeapps.DecodeApplicationsChanged(event)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(data.Applications))
		for _, app := range data.Applications {
			names = append(names, app.String())
		}
		logger.Info("Applications changed", "eventID", event.ID(), "applications", fmt.Sprint(names), "fallback", data.Fallback)
		return nil
	})
}
