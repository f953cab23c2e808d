package schedule

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windward-io/windward/pkg/events"
)

func fixedSubjects(ids ...string) InactiveSubjects {
	return func(_ context.Context) ([]string, error) {
		return ids, nil
	}
}

func TestNewSource_ValidatesConfiguration(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		name      string
		id        string
		cronExpr  string
		eventType string
		wantErr   string
	}{
		{name: "valid", id: "inactivity-sweep", cronExpr: "0 3 * * *", eventType: events.EventUserInactive},
		{name: "missing id", cronExpr: "0 3 * * *", eventType: events.EventUserInactive, wantErr: "ID is required"},
		{name: "missing event type", id: "inactivity-sweep", cronExpr: "0 3 * * *", wantErr: "event type is required"},
		{name: "missing cron", id: "inactivity-sweep", eventType: events.EventUserInactive, wantErr: "cron expression is required"},
		{name: "malformed cron", id: "inactivity-sweep", cronExpr: "every day at 3", eventType: events.EventUserInactive, wantErr: "invalid cron expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := NewSource(tt.id, tt.cronExpr, tt.eventType, fixedSubjects(), logger)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, source)

				return
			}

			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSweep_EmitsOneEventPerSubject(t *testing.T) {
	source, err := NewSource("inactivity-sweep", "0 3 * * *", events.EventUserInactive,
		fixedSubjects("user-1", "user-2"), slog.Default())
	require.NoError(t, err)

	var emitted []events.AutomationEvent
	source.callback = func(_ context.Context, event events.AutomationEvent) error {
		emitted = append(emitted, event)
		return nil
	}

	source.Sweep(context.Background())

	require.Len(t, emitted, 2)
	assert.Equal(t, events.EventUserInactive, emitted[0].Type)
	assert.Equal(t, "user-1", emitted[0].SubjectID)
	assert.Equal(t, "user-2", emitted[1].SubjectID)
	assert.Equal(t, "schedule:inactivity-sweep", emitted[0].Source)
	assert.Equal(t, "inactivity-sweep", emitted[0].Data["sweep_id"])
	assert.NotEmpty(t, emitted[0].Data["timestamp"])
}

func TestSweep_CallbackErrorDoesNotStopSweep(t *testing.T) {
	source, err := NewSource("inactivity-sweep", "0 3 * * *", events.EventUserInactive,
		fixedSubjects("user-1", "user-2", "user-3"), slog.Default())
	require.NoError(t, err)

	var handled int
	source.callback = func(_ context.Context, event events.AutomationEvent) error {
		handled++

		if event.SubjectID == "user-2" {
			return errors.New("bus unavailable")
		}

		return nil
	}

	source.Sweep(context.Background())
	assert.Equal(t, 3, handled)
}

func TestSweep_SubjectListFailureEmitsNothing(t *testing.T) {
	failing := func(_ context.Context) ([]string, error) {
		return nil, errors.New("store unavailable")
	}

	source, err := NewSource("inactivity-sweep", "0 3 * * *", events.EventUserInactive, failing, slog.Default())
	require.NoError(t, err)

	source.callback = func(_ context.Context, _ events.AutomationEvent) error {
		t.Fatal("no events expected when the subject query fails")
		return nil
	}

	source.Sweep(context.Background())
}

func TestSource_StartStop(t *testing.T) {
	source, err := NewSource("inactivity-sweep", "0 3 * * *", events.EventUserInactive,
		fixedSubjects(), slog.Default())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, source.Start(ctx, func(_ context.Context, _ events.AutomationEvent) error { return nil }))
	require.NoError(t, source.Stop(ctx))
}
