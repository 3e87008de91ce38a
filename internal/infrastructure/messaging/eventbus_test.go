package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chas-career/career-hub/internal/domain/shared"
	"github.com/chas-career/career-hub/pkg/timeutil"
)

func placementEvent() shared.Event {
	return shared.NewPlacementStatusChangedEvent("pl-1", "student-1", "company-1", "teacher-1", "PENDING", "APPROVED", timeutil.Date(2025, 3, 10))
}

func TestInMemoryEventBus_Sync(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	var typed, all int

	require.NoError(t, bus.Subscribe(shared.EventPlacementStatusChanged, func(shared.Event) error { typed++; return nil }))
	require.NoError(t, bus.Subscribe(shared.EventLeadCreated, func(shared.Event) error { t.Fatal("wrong type"); return nil }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { all++; return nil }))

	require.NoError(t, bus.Publish(placementEvent()))
	assert.Equal(t, 1, typed)
	assert.Equal(t, 1, all)
}

func TestInMemoryEventBus_HandlerErrorsAndPanicsAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	var after int

	require.NoError(t, bus.Subscribe(shared.EventPlacementStatusChanged, func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.Subscribe(shared.EventPlacementStatusChanged, func(shared.Event) error { panic("kaboom") }))
	require.NoError(t, bus.Subscribe(shared.EventPlacementStatusChanged, func(shared.Event) error { after++; return nil }))

	assert.NoError(t, bus.Publish(placementEvent()))
	assert.Equal(t, 1, after)
}

func TestInMemoryEventBus_Async(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})
	var calls int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(placementEvent()))
	}
	bus.Wait()
	assert.Equal(t, int32(10), atomic.LoadInt32(&calls))
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(placementEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.Error(t, bus.Publish(nil))
}

type fakeRedis struct {
	mu       sync.Mutex
	channel  string
	messages []string
	err      error
}

func (f *fakeRedis) Publish(_ context.Context, channel, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.channel = channel
	f.messages = append(f.messages, message)
	return nil
}

func TestRedisEventBus_MirrorsAndDeliversLocally(t *testing.T) {
	redis := &fakeRedis{}
	bus, err := NewRedisEventBus(RedisEventBusConfig{Client: redis})
	require.NoError(t, err)

	var local int
	require.NoError(t, bus.Subscribe(shared.EventPlacementStatusChanged, func(shared.Event) error { local++; return nil }))
	require.NoError(t, bus.Publish(placementEvent()))

	assert.Equal(t, 1, local)
	assert.Equal(t, "career-hub:events", redis.channel)
	require.Len(t, redis.messages, 1)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(redis.messages[0]), &env))
	assert.Equal(t, shared.EventPlacementStatusChanged, env.EventType)
	assert.Equal(t, "pl-1", env.AggregateID)
	assert.Equal(t, "APPROVED", env.Payload["to"])
}

func TestRedisEventBus_RedisFailureStillDeliversLocally(t *testing.T) {
	bus, err := NewRedisEventBus(RedisEventBusConfig{Client: &fakeRedis{err: errors.New("connection refused")}})
	require.NoError(t, err)

	var local int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { local++; return nil }))
	assert.NoError(t, bus.Publish(placementEvent()))
	assert.Equal(t, 1, local)
}

func TestNewRedisEventBus_RequiresClient(t *testing.T) {
	_, err := NewRedisEventBus(RedisEventBusConfig{})
	assert.Error(t, err)
}
