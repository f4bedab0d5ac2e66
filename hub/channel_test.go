package hub_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/directory/hub"
)

func TestMessageChannel_SendReceive(t *testing.T) {
	mc := hub.NewMessageChannel[int](context.Background(), 2)
	ctx := context.Background()

	mc.Send(ctx, 1)
	mc.Send(ctx, 2)

	if mc.QueueLength() != 2 || mc.BufferSize() != 2 {
		t.Errorf("QueueLength/BufferSize = %d/%d, want 2/2", mc.QueueLength(), mc.BufferSize())
	}

	for _, want := range []int{1, 2} {
		got, err := mc.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if got != want {
			t.Errorf("Receive() = %d, want %d", got, want)
		}
	}
}

func TestMessageChannel_ContextDone(t *testing.T) {
	bound, cancel := context.WithCancel(context.Background())
	mc := hub.NewMessageChannel[int](bound, 1)
	cancel()

	if err := mc.Send(context.Background(), 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v, want context.Canceled", err)
	}
	if _, err := mc.Receive(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("Receive() error = %v, want context.Canceled", err)
	}
}

func TestMessageChannel_SendBlocksUntilCallerCancels(t *testing.T) {
	mc := hub.NewMessageChannel[int](context.Background(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := mc.Send(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Send() on full channel error = %v, want context.Canceled", err)
	}
}
