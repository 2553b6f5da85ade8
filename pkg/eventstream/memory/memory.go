//nolint:revive // exported
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/eventstream"
)

// DefaultSubscriberBuffer bounds how many undelivered events a subscriber
// may hold before Publish starts dropping for it.
const DefaultSubscriberBuffer = 64

var ErrStreamerClosed = errors.New("eventstream: streamer closed")

type subscriber[Topic any, Payload any] struct {
	ctx    context.Context
	filter eventstream.TopicFilter[Topic]
	ch     chan eventstream.Event[Topic, Payload]
	closed atomic.Bool
}

type inMemorySyncStreamer[Topic any, Payload any] struct {
	mu          sync.RWMutex
	subscribers map[*subscriber[Topic, Payload]]struct{}
	closed      atomic.Bool
	buffer      int
	dropped     atomic.Int64
}

// Streamer is the in-memory SyncStreamer. Dropped reports how many events
// were discarded because a subscriber buffer was full.
type Streamer[Topic any, Payload any] interface {
	eventstream.SyncStreamer[Topic, Payload]
	Dropped() int64
}

// NewInMemorySyncStreamer creates a streamer with DefaultSubscriberBuffer.
func NewInMemorySyncStreamer[Topic any, Payload any]() Streamer[Topic, Payload] {
	return NewInMemorySyncStreamerWithBuffer[Topic, Payload](DefaultSubscriberBuffer)
}

func NewInMemorySyncStreamerWithBuffer[Topic any, Payload any](buffer int) Streamer[Topic, Payload] {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &inMemorySyncStreamer[Topic, Payload]{
		subscribers: make(map[*subscriber[Topic, Payload]]struct{}),
		buffer:      buffer,
	}
}

func (s *inMemorySyncStreamer[Topic, Payload]) Publish(topic Topic, payloads ...Payload) {
	if s.closed.Load() || len(payloads) == 0 {
		return
	}

	s.mu.RLock()
	subs := make([]*subscriber[Topic, Payload], 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	for _, sub := range subs {
		if sub.closed.Load() || !sub.filter(topic) {
			continue
		}
		for _, payload := range payloads {
			s.trySend(sub, eventstream.Event[Topic, Payload]{Topic: topic, Payload: payload})
		}
	}
}

func (s *inMemorySyncStreamer[Topic, Payload]) Subscribe(
	ctx context.Context,
	filter eventstream.TopicFilter[Topic],
) (<-chan eventstream.Event[Topic, Payload], error) {
	if s.closed.Load() {
		return nil, ErrStreamerClosed
	}
	if filter == nil {
		filter = func(Topic) bool { return true }
	}

	sub := &subscriber[Topic, Payload]{
		ctx:    ctx,
		filter: filter,
		ch:     make(chan eventstream.Event[Topic, Payload], s.buffer),
	}

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return nil, ErrStreamerClosed
	}
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()

	go s.monitorContext(sub)

	return sub.ch, nil
}

func (s *inMemorySyncStreamer[Topic, Payload]) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subscribers {
		if sub.closed.CompareAndSwap(false, true) {
			close(sub.ch)
		}
	}
	s.subscribers = nil
}

func (s *inMemorySyncStreamer[Topic, Payload]) Dropped() int64 {
	return s.dropped.Load()
}

func (s *inMemorySyncStreamer[Topic, Payload]) monitorContext(sub *subscriber[Topic, Payload]) {
	<-sub.ctx.Done()
	s.removeSubscriber(sub)
}

func (s *inMemorySyncStreamer[Topic, Payload]) removeSubscriber(sub *subscriber[Topic, Payload]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribers == nil {
		return
	}
	if _, ok := s.subscribers[sub]; !ok {
		return
	}
	delete(s.subscribers, sub)
	if sub.closed.CompareAndSwap(false, true) {
		close(sub.ch)
	}
}

// trySend tolerates a channel closed concurrently by removeSubscriber.
func (s *inMemorySyncStreamer[Topic, Payload]) trySend(sub *subscriber[Topic, Payload], evt eventstream.Event[Topic, Payload]) {
	defer func() {
		if r := recover(); r != nil {
			sub.closed.Store(true)
		}
	}()

	select {
	case sub.ch <- evt:
	default:
		s.dropped.Add(1)
	}
}
