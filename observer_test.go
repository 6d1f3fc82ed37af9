package signals

import (
	"context"
	"errors"
	"sync"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCloudEvent(t *testing.T) {
	t.Parallel()
	event := NewCloudEvent("test.event", "test.source", "test data", map[string]any{"key": "value"})

	assert.Equal(t, "test.event", event.Type())
	assert.Equal(t, "test.source", event.Source())
	assert.NotEmpty(t, event.ID())
	assert.False(t, event.Time().IsZero())

	var data string
	require.NoError(t, event.DataAs(&data))
	assert.Equal(t, "test data", data)

	val, ok := event.Extensions()["key"]
	require.True(t, ok)
	assert.Equal(t, "value", val)

	assert.NoError(t, ValidateCloudEvent(event))
}

func TestFuncObserver(t *testing.T) {
	t.Parallel()
	var received cloudevents.Event
	obs := NewFuncObserver("func-observer", func(ctx context.Context, event cloudevents.Event) error {
		received = event
		return nil
	})

	assert.Equal(t, "func-observer", obs.ObserverID())

	event := NewCloudEvent("test.event", "test", nil, nil)
	require.NoError(t, obs.OnEvent(context.Background(), event))
	assert.Equal(t, event.ID(), received.ID())
}

// eventCollector is a threadsafe observer recording event types.
type eventCollector struct {
	mu    sync.Mutex
	id    string
	types []string
}

func (c *eventCollector) OnEvent(_ context.Context, event cloudevents.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, event.Type())
	return nil
}

func (c *eventCollector) ObserverID() string { return c.id }

func (c *eventCollector) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.types...)
}

func TestObserverFiltering(t *testing.T) {
	t.Parallel()
	agent, _ := newTestAgent()

	all := &eventCollector{id: "all"}
	onlyDetach := &eventCollector{id: "detach-only"}
	require.NoError(t, agent.RegisterObserver(all))
	require.NoError(t, agent.RegisterObserver(onlyDetach, EventTypeModuleDetached))

	m := &hookModule{}
	_, err := agent.Attach(m)
	require.NoError(t, err)
	require.NoError(t, agent.Detach(m))
	agent.Quiesce()

	assert.ElementsMatch(t, []string{EventTypeModuleAttached, EventTypeModuleDetached}, all.seen())
	assert.Equal(t, []string{EventTypeModuleDetached}, onlyDetach.seen())
}

func TestObserverLifecycleEventSequence(t *testing.T) {
	t.Parallel()
	agent, _ := newTestAgent()

	col := &eventCollector{id: "lifecycle"}
	require.NoError(t, agent.RegisterObserver(col,
		EventTypeModuleAttached, EventTypeModuleInitialized,
		EventTypeModuleDetachRefused, EventTypeModuleDetached,
		EventTypeAgentTeardown))

	m := &hookModule{refuse: 1}
	_, err := agent.Attach(m)
	require.NoError(t, err)
	require.NoError(t, agent.Initialize())
	require.ErrorIs(t, agent.Detach(m), ErrRemovalRefused)
	agent.Teardown()
	agent.Quiesce()

	assert.ElementsMatch(t, []string{
		EventTypeModuleAttached,
		EventTypeModuleInitialized,
		EventTypeModuleDetachRefused,
		EventTypeModuleDetached,
		EventTypeAgentTeardown,
	}, col.seen())
}

func TestUnregisterObserverIsIdempotent(t *testing.T) {
	t.Parallel()
	agent, _ := newTestAgent()

	col := &eventCollector{id: "gone"}
	require.NoError(t, agent.RegisterObserver(col))
	require.NoError(t, agent.UnregisterObserver(col))
	require.NoError(t, agent.UnregisterObserver(col))

	_, err := agent.Attach(&hookModule{})
	require.NoError(t, err)
	agent.Quiesce()
	assert.Empty(t, col.seen())
}

func TestObserversReportsRegistrations(t *testing.T) {
	t.Parallel()
	agent, _ := newTestAgent()

	require.NoError(t, agent.RegisterObserver(&eventCollector{id: "a"}))
	require.NoError(t, agent.RegisterObserver(&eventCollector{id: "b"}, EventTypeDispatchFailed))

	infos := agent.Observers()
	require.Len(t, infos, 2)
	byID := map[string][]string{}
	for _, info := range infos {
		byID[info.ID] = info.EventTypes
		assert.False(t, info.RegisteredAt.IsZero())
	}
	assert.Empty(t, byID["a"])
	assert.Equal(t, []string{EventTypeDispatchFailed}, byID["b"])
}

var errObserver = errors.New("observer failed")

func TestObserverErrorsAndPanicsAreContained(t *testing.T) {
	t.Parallel()
	agent, logger := newTestAgent()

	failing := NewFuncObserver("failing", func(ctx context.Context, event cloudevents.Event) error {
		return errObserver
	})
	panicking := NewFuncObserver("panicking", func(ctx context.Context, event cloudevents.Event) error {
		panic("observer exploded")
	})
	require.NoError(t, agent.RegisterObserver(failing))
	require.NoError(t, agent.RegisterObserver(panicking))

	_, err := agent.Attach(&hookModule{})
	require.NoError(t, err)
	agent.Quiesce()

	msgs := logger.messages("error")
	assert.Contains(t, msgs, "observer error")
	assert.Contains(t, msgs, "observer panicked")
}

func TestNotifyObserversRejectsInvalidEvent(t *testing.T) {
	t.Parallel()
	agent, _ := newTestAgent()

	bad := cloudevents.NewEvent() // missing id, source and type
	err := agent.NotifyObservers(context.Background(), bad)
	assert.Error(t, err)
}
