package tyeapps

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCloudEvent(t *testing.T) {
	data := ApplicationsChangedData{Applications: []Application{NewApplication().WithName("a")}}
	event := NewCloudEvent(EventTypeApplicationsChanged, "test-source", data, map[string]any{"origin": "unit"})

	assert.Equal(t, EventTypeApplicationsChanged, event.Type())
	assert.Equal(t, "test-source", event.Source())
	assert.False(t, event.Time().IsZero())
	assert.Equal(t, "unit", event.Extensions()["origin"])
	require.NoError(t, ValidateCloudEvent(event))

	id, err := uuid.Parse(event.ID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	decoded, err := DecodeApplicationsChanged(event)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDecodeApplicationsChanged_BadPayload(t *testing.T) {
	event := NewCloudEvent(EventTypeApplicationsChanged, "test", "not an object", nil)
	_, err := DecodeApplicationsChanged(event)
	assert.Error(t, err)
}
