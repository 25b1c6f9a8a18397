package service

import (
	"time"
)

// Topics published by the stores.
const (
	// TopicSessionChanged fires after every committed session transition.
	TopicSessionChanged = "session.changed"
	// TopicCartChanged fires after every cart mutation.
	TopicCartChanged = "cart.changed"
)

// Event is a state-change notification delivered to subscribers.
type Event struct {
	Topic   string    // The topic the event was published on.
	At      time.Time // Publication time.
	Payload any       // Topic-specific payload, a copy of the new state.
}

// EventBus lets collaborating components observe store transitions without
// polling. Delivery is best-effort: slow subscribers may miss events, which
// is acceptable because every payload carries the full current state.
type EventBus interface {
	// Publish delivers an event to current subscribers of the topic.
	Publish(topic string, payload any)

	// Subscribe registers for a topic. The returned cancel function
	// releases the subscription and closes the channel.
	Subscribe(topic string) (<-chan Event, func())
}
