package websocket

import (
	"errors"

	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// ErrSessionClosed is returned when subscribing on a torn-down session.
var ErrSessionClosed = errors.New("session closed")

// Session is one subscriber on the hub. It starts with no topics, receives
// signals while subscribed and is torn down by Close, by the hub on buffer
// overflow, or when the hub stops.
type Session struct {
	hub     *Hub
	actor   domain.Participant
	signals chan domain.Signal

	// topics is guarded by hub.mu
	topics map[domain.Topic]struct{}
}

var _ ports.SignalSession = (*Session)(nil)

// Subscribe adds the topic if the session's actor may observe it.
func (s *Session) Subscribe(topic domain.Topic) error {
	return s.hub.subscribe(s, topic)
}

// Unsubscribe removes the topic. Unknown topics are ignored.
func (s *Session) Unsubscribe(topic domain.Topic) {
	s.hub.unsubscribe(s, topic)
}

// Signals is closed once the session is torn down.
func (s *Session) Signals() <-chan domain.Signal {
	return s.signals
}

// Close tears the session down. It is safe to call more than once.
func (s *Session) Close() {
	s.hub.remove(s)
}

// Actor returns the participant that owns the session.
func (s *Session) Actor() domain.Participant {
	return s.actor
}

// Topics returns a copy of the current subscriptions.
func (s *Session) Topics() []domain.Topic {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()

	out := make([]domain.Topic, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}
