// Package eventstream defines a topic-filtered publish/subscribe contract
// used to push workflow changes to live subscribers.
package eventstream

import "context"

// Event pairs a payload with the topic it was published on.
type Event[Topic any, Payload any] struct {
	Topic   Topic
	Payload Payload
}

// TopicFilter selects the topics a subscriber receives. A nil filter
// accepts every topic.
type TopicFilter[Topic any] func(Topic) bool

// SyncStreamer fans published events out to subscribers.
type SyncStreamer[Topic any, Payload any] interface {
	// Subscribe returns a channel of matching events. The channel is closed
	// when ctx is done or the streamer shuts down.
	Subscribe(ctx context.Context, filter TopicFilter[Topic]) (<-chan Event[Topic, Payload], error)

	// Publish delivers payloads to every matching subscriber. It never
	// blocks; a subscriber whose buffer is full misses the event.
	Publish(topic Topic, payloads ...Payload)

	// Shutdown closes every subscriber channel. Later calls are no-ops.
	Shutdown()
}

// Equals is a TopicFilter accepting one comparable topic.
func Equals[Topic comparable](want Topic) TopicFilter[Topic] {
	return func(t Topic) bool { return t == want }
}
