package queue

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource_Defaults(t *testing.T) {
	source, err := NewSource("", "", 0, "windward:events", slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", source.Addr)
	assert.Equal(t, "windward:events", source.Queue)
}

func TestNewSource_RequiresQueueName(t *testing.T) {
	_, err := NewSource("localhost:6379", "", 0, "", slog.Default())
	require.Error(t, err)
	assert.ErrorContains(t, err, "queue name is required")
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{
			name:    "complete event",
			payload: `{"id":"evt-1","type":"price.dropped","subject_id":"user-42","data":{"percentageDiscount":20},"timestamp":"2026-03-01T12:00:00Z"}`,
		},
		{
			name:    "missing id and timestamp are filled",
			payload: `{"type":"user.created","subject_id":"user-42"}`,
		},
		{
			name:    "missing type",
			payload: `{"subject_id":"user-42"}`,
			wantErr: "missing type or subject_id",
		},
		{
			name:    "missing subject",
			payload: `{"type":"user.created"}`,
			wantErr: "missing type or subject_id",
		},
		{
			name:    "malformed json",
			payload: `{"type":`,
			wantErr: "invalid event payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := decodeEvent(tt.payload)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, event.ID)
			assert.False(t, event.Timestamp.IsZero())
		})
	}
}

func TestDecodeEvent_PreservesProducerFields(t *testing.T) {
	event, err := decodeEvent(`{"id":"evt-7","type":"search.abandoned","subject_id":"user-9","timestamp":"2026-03-01T12:00:00Z"}`)
	require.NoError(t, err)

	assert.Equal(t, "evt-7", event.ID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), event.Timestamp)
}
