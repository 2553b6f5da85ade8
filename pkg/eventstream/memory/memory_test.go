package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/eventstream"
)

type saved struct {
	Revision string
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("did not receive event within timeout")
	}
	var zero T
	return zero
}

func TestPublishSubscribe_Filtered(t *testing.T) {
	streamer := NewInMemorySyncStreamer[string, saved]()
	defer streamer.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recon, err := streamer.Subscribe(ctx, eventstream.Equals("recon"))
	require.NoError(t, err)
	all, err := streamer.Subscribe(ctx, nil)
	require.NoError(t, err)

	streamer.Publish("other", saved{Revision: "1"})
	streamer.Publish("recon", saved{Revision: "2"}, saved{Revision: "3"})

	assert.Equal(t, "2", receive(t, recon).Payload.Revision)
	assert.Equal(t, "3", receive(t, recon).Payload.Revision)

	evt := receive(t, all)
	assert.Equal(t, "other", evt.Topic)
	assert.Equal(t, "2", receive(t, all).Payload.Revision)
}

func TestSubscribe_ClosedOnCancel(t *testing.T) {
	streamer := NewInMemorySyncStreamer[string, saved]()
	defer streamer.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := streamer.Subscribe(ctx, nil)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestShutdown(t *testing.T) {
	streamer := NewInMemorySyncStreamer[string, saved]()
	ch, err := streamer.Subscribe(context.Background(), nil)
	require.NoError(t, err)

	streamer.Shutdown()
	streamer.Shutdown()

	_, ok := <-ch
	assert.False(t, ok)

	_, err = streamer.Subscribe(context.Background(), nil)
	assert.ErrorIs(t, err, ErrStreamerClosed)
	streamer.Publish("recon", saved{})
}

func TestPublish_DropsWhenFull(t *testing.T) {
	streamer := NewInMemorySyncStreamerWithBuffer[string, saved](1)
	defer streamer.Shutdown()

	_, err := streamer.Subscribe(context.Background(), nil)
	require.NoError(t, err)

	streamer.Publish("recon", saved{Revision: "1"}, saved{Revision: "2"}, saved{Revision: "3"})
	assert.Equal(t, int64(2), streamer.Dropped())
}
