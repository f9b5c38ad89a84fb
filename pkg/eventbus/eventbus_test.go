package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pingEvent struct{}

func (pingEvent) Name() string { return "ping" }

type otherEvent struct{}

func (otherEvent) Name() string { return "other" }

func TestBus_PublishCallsEverySubscriber(t *testing.T) {
	bus := New(zap.NewNop())
	var calls int32

	for i := 0; i < 3; i++ {
		bus.Subscribe("ping", func(ctx context.Context, e Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}
	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		t.Error("слушатель другого события не должен вызываться")
		return nil
	})

	bus.Publish(pingEvent{})
	bus.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestBus_ListenerFailuresAreContained(t *testing.T) {
	bus := New(zap.NewNop())
	var reached int32

	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		return errors.New("сбой")
	})
	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		panic("неожиданно")
	})
	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		atomic.StoreInt32(&reached, 1)
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(otherEvent{})
		bus.Wait()
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&reached))
}
