package event

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

func TestBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got atomic.Int64
	bus.Subscribe("alert.recorded", func(_ context.Context, e plugin.Event) {
		if e.Topic != "alert.recorded" {
			t.Errorf("handler got topic %q", e.Topic)
		}
		got.Add(1)
	})
	bus.Subscribe("alert.recorded", func(_ context.Context, _ plugin.Event) {
		got.Add(1)
	})

	bus.Publish(context.Background(), plugin.Event{Topic: "alert.recorded", Source: "test"})

	if got.Load() != 2 {
		t.Errorf("delivered to %d handlers, want 2", got.Load())
	}
}

func TestBus_PublishIgnoresOtherTopics(t *testing.T) {
	bus := NewBus(zap.NewNop())

	called := false
	bus.Subscribe("topic.a", func(_ context.Context, _ plugin.Event) { called = true })
	bus.Publish(context.Background(), plugin.Event{Topic: "topic.b"})

	if called {
		t.Error("handler for topic.a fired on topic.b")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got atomic.Int64
	unsub := bus.Subscribe("t", func(_ context.Context, _ plugin.Event) { got.Add(1) })

	bus.Publish(context.Background(), plugin.Event{Topic: "t"})
	unsub()
	bus.Publish(context.Background(), plugin.Event{Topic: "t"})

	if got.Load() != 1 {
		t.Errorf("handler fired %d times, want 1", got.Load())
	}
}

func TestBus_PublishAsyncDoesNotBlockCaller(t *testing.T) {
	bus := NewBus(zap.NewNop())

	release := make(chan struct{})
	done := make(chan struct{})
	bus.Subscribe("slow", func(_ context.Context, _ plugin.Event) {
		<-release
		close(done)
	})

	start := time.Now()
	bus.PublishAsync(context.Background(), plugin.Event{Topic: "slow"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("PublishAsync blocked for %v", elapsed)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler never ran")
	}
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus(zap.NewNop())

	bus.Subscribe("boom", func(_ context.Context, _ plugin.Event) { panic("handler bug") })

	survived := false
	bus.Subscribe("boom", func(_ context.Context, _ plugin.Event) { survived = true })

	bus.Publish(context.Background(), plugin.Event{Topic: "boom"})

	if !survived {
		t.Error("panicking handler prevented delivery to the next handler")
	}
}

func TestBus_ConcurrentSubscribePublish(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe("c", func(_ context.Context, _ plugin.Event) {})
		}()
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), plugin.Event{Topic: "c"})
		}()
	}
	wg.Wait()
}
