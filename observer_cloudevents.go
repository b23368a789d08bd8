package tyeapps

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// ApplicationsChangedData is the payload of EventTypeApplicationsChanged events.
type ApplicationsChangedData struct {
	Applications []Application `json:"applications"`
	Fallback     bool          `json:"fallback"`
}

// NewCloudEvent creates a new CloudEvent with the specified parameters.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event
}

// generateEventID returns a UUIDv7, which sorts by creation time.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent conforms to the specification.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// DecodeApplicationsChanged extracts the application list from an
// EventTypeApplicationsChanged event.
func DecodeApplicationsChanged(event cloudevents.Event) (ApplicationsChangedData, error) {
	var data ApplicationsChangedData
	if err := event.DataAs(&data); err != nil {
		return ApplicationsChangedData{}, fmt.Errorf("failed to decode %s event: %w", event.Type(), err)
	}
	return data, nil
}
