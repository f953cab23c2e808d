package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windward-io/windward/pkg/channels/gochannel"
	"github.com/windward-io/windward/pkg/eventbus"
	"github.com/windward-io/windward/pkg/events"
)

func testBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_AutomationRoundTrip(t *testing.T) {
	bus := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.AutomationEvent, 1)
	require.NoError(t, bus.SubscribeAutomation(ctx, func(_ context.Context, event events.AutomationEvent) error {
		received <- event
		return nil
	}))

	sent := events.NewAutomationEvent(events.EventUserCreated, "user-42",
		map[string]any{"source": "landing-page"}, "signup-service")
	require.NoError(t, bus.PublishAutomation(ctx, sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, events.EventUserCreated, got.Type)
		assert.Equal(t, "user-42", got.SubjectID)
		assert.Equal(t, "landing-page", got.Data["source"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for automation event")
	}
}

func TestWatermillEventBus_LifecycleDispatch(t *testing.T) {
	bus := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ExecutionCompleted, 1)
	bus.Handle(events.ExecutionCompletedEvent, func(_ context.Context, event any) error {
		completed, ok := event.(*events.ExecutionCompleted)
		require.True(t, ok)
		received <- completed

		return nil
	})

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "exec-1", events.ExecutionCompleted{
		BaseEvent: events.NewBase(events.ExecutionCompletedEvent, "welcome-series-v1", "exec-1", "user-42"),
		Duration:  time.Second,
	}))

	select {
	case got := <-received:
		assert.Equal(t, "welcome-series-v1", got.WorkflowID)
		assert.Equal(t, "exec-1", got.ExecutionID)
		assert.Equal(t, "user-42", got.SubjectID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for lifecycle event")
	}
}

func TestWatermillEventBus_SuspendedDispatch(t *testing.T) {
	bus := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ExecutionSuspended, 1)
	bus.Handle(events.ExecutionSuspendedEvent, func(_ context.Context, event any) error {
		suspended, ok := event.(*events.ExecutionSuspended)
		require.True(t, ok)
		received <- suspended

		return nil
	})

	require.NoError(t, bus.Subscribe(ctx))

	resumeAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, bus.Publish(ctx, "exec-1", events.ExecutionSuspended{
		BaseEvent: events.NewBase(events.ExecutionSuspendedEvent, "waiting-v1", "exec-1", "user-42"),
		ResumeAt:  resumeAt,
	}))

	select {
	case got := <-received:
		assert.Equal(t, "exec-1", got.ExecutionID)
		assert.True(t, got.ResumeAt.Equal(resumeAt))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for lifecycle event")
	}
}

func TestWatermillEventBus_UnhandledLifecycleTypeIsIgnored(t *testing.T) {
	bus := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// no handler registered for paused events
	require.NoError(t, bus.Publish(ctx, "exec-1", events.ExecutionPaused{
		BaseEvent: events.NewBase(events.ExecutionPausedEvent, "welcome-series-v1", "exec-1", "user-42"),
	}))
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := testBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
