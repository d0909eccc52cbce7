package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// HubConfig sizes the hub's buffers.
type HubConfig struct {
	// BroadcastBuffer is the number of pending topics the hub accepts before dropping.
	BroadcastBuffer int
	// SessionBuffer is the number of undelivered signals a session may hold
	// before it is torn down.
	SessionBuffer int
}

func (c HubConfig) withDefaults() HubConfig {
	if c.BroadcastBuffer <= 0 {
		c.BroadcastBuffer = 256
	}
	if c.SessionBuffer <= 0 {
		c.SessionBuffer = 16
	}
	return c
}

// Hub is the in-process fan-out layer. It maps topics to subscribed sessions
// and delivers "topic changed" signals without ever blocking a publisher.
type Hub struct {
	// sessions is the set of live sessions
	sessions map[*Session]struct{}

	// rooms maps a topic to its subscribed sessions
	rooms map[domain.Topic]map[*Session]struct{}

	// broadcast queues topics for the Run loop
	broadcast chan domain.Topic

	cfg HubConfig

	// mu protects sessions and rooms. Signal channels are only sent on under
	// a read lock and only closed under the write lock.
	mu sync.RWMutex

	logger *slog.Logger
}

var (
	_ ports.EventBroadcaster = (*Hub)(nil)
	_ ports.SessionOpener    = (*Hub)(nil)
)

// NewHub creates a new fan-out hub
func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	cfg = cfg.withDefaults()
	return &Hub{
		sessions:  make(map[*Session]struct{}),
		rooms:     make(map[domain.Topic]map[*Session]struct{}),
		broadcast: make(chan domain.Topic, cfg.BroadcastBuffer),
		cfg:       cfg,
		logger:    logger.With("component", "fanout_hub"),
	}
}

// Broadcast queues a "changed" signal for the topic. It never blocks; when
// the queue is full the signal is dropped.
func (h *Hub) Broadcast(topic domain.Topic) error {
	select {
	case h.broadcast <- topic:
	default:
		h.logger.Warn("broadcast queue full, dropping signal", "topic", topic.String())
	}
	return nil
}

// Run delivers queued signals until ctx is cancelled, then tears down every
// session. This MUST be run as a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case topic := <-h.broadcast:
			h.deliver(topic)
		}
	}
}

// OpenSession registers a new inactive session for the actor.
func (h *Hub) OpenSession(actor domain.Participant) ports.SignalSession {
	return h.open(actor)
}

func (h *Hub) open(actor domain.Participant) *Session {
	s := &Session{
		hub:     h,
		actor:   actor,
		signals: make(chan domain.Signal, h.cfg.SessionBuffer),
		topics:  make(map[domain.Topic]struct{}),
	}

	h.mu.Lock()
	h.sessions[s] = struct{}{}
	total := len(h.sessions)
	h.mu.Unlock()

	h.logger.Debug("session opened",
		"actor_kind", string(actor.Kind),
		"actor_id", actor.ID.String(),
		"total_sessions", total,
	)
	return s
}

func (h *Hub) subscribe(s *Session, topic domain.Topic) error {
	if !s.actor.CanObserve(topic) {
		h.logger.Warn("subscription refused",
			"actor_kind", string(s.actor.Kind),
			"actor_id", s.actor.ID.String(),
			"topic", topic.String(),
		)
		return apperrors.ErrForbidden
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, live := h.sessions[s]; !live {
		return ErrSessionClosed
	}
	if h.rooms[topic] == nil {
		h.rooms[topic] = make(map[*Session]struct{})
	}
	h.rooms[topic][s] = struct{}{}
	s.topics[topic] = struct{}{}

	h.logger.Debug("session subscribed", "actor_id", s.actor.ID.String(), "topic", topic.String())
	return nil
}

func (h *Hub) unsubscribe(s *Session, topic domain.Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveRoom(s, topic)
	delete(s.topics, topic)
}

// leaveRoom must be called with the write lock held.
func (h *Hub) leaveRoom(s *Session, topic domain.Topic) {
	if room, ok := h.rooms[topic]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, topic)
		}
	}
}

// remove tears a session down: it leaves every room and its signal channel is closed.
func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *Session) {
	if _, live := h.sessions[s]; !live {
		return
	}
	for topic := range s.topics {
		h.leaveRoom(s, topic)
	}
	s.topics = make(map[domain.Topic]struct{})
	delete(h.sessions, s)
	close(s.signals)
}

// deliver sends a signal to every session subscribed to the topic. A session
// whose buffer is full is torn down; its client reconnects and re-fetches.
func (h *Hub) deliver(topic domain.Topic) {
	signal := domain.NewChangedSignal(topic)

	var overflowed []*Session

	h.mu.RLock()
	room := h.rooms[topic]
	for s := range room {
		select {
		case s.signals <- signal:
		default:
			overflowed = append(overflowed, s)
		}
	}
	count := len(room)
	h.mu.RUnlock()

	h.logger.Debug("signal delivered", "topic", topic.String(), "session_count", count)

	for _, s := range overflowed {
		h.logger.Warn("session buffer full, tearing down",
			"actor_id", s.actor.ID.String(),
			"topic", topic.String(),
		)
		h.remove(s)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.sessions {
		h.removeLocked(s)
	}
	h.logger.Info("hub stopped, all sessions closed")
}

// SessionCount returns the number of live sessions
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomCount returns the number of topics with at least one subscriber
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// SubscriberCount returns the number of sessions subscribed to a topic
func (h *Hub) SubscriberCount(topic domain.Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}
