package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TopicKind names the entity stream a fan-out topic watches.
type TopicKind string

const (
	TopicSupport       TopicKind = "support"
	TopicVendor        TopicKind = "vendor"
	TopicNotifications TopicKind = "notifications"

	// Unscoped topics used to refresh the admin conversation lists.
	TopicSupportList TopicKind = "support_list"
	TopicVendorList  TopicKind = "vendor_list"
)

// Topic is a fan-out key. Scope is uuid.Nil for list topics.
type Topic struct {
	Kind  TopicKind
	Scope uuid.UUID
}

// ConversationTopic returns the topic for a single conversation.
func ConversationTopic(ch Channel, scopeID uuid.UUID) Topic {
	if ch == ChannelVendor {
		return Topic{Kind: TopicVendor, Scope: scopeID}
	}
	return Topic{Kind: TopicSupport, Scope: scopeID}
}

// ListTopic returns the unscoped "conversation list changed" topic of a channel.
func ListTopic(ch Channel) Topic {
	if ch == ChannelVendor {
		return Topic{Kind: TopicVendorList}
	}
	return Topic{Kind: TopicSupportList}
}

// NotificationsTopic returns the topic for a vendor notification feed.
func NotificationsTopic(vendorProfileID uuid.UUID) Topic {
	return Topic{Kind: TopicNotifications, Scope: vendorProfileID}
}

func (t Topic) IsList() bool {
	return t.Kind == TopicSupportList || t.Kind == TopicVendorList
}

// String renders the topic as "kind" or "kind:scope".
func (t Topic) String() string {
	if t.IsList() {
		return string(t.Kind)
	}
	return string(t.Kind) + ":" + t.Scope.String()
}

// ParseTopic is the inverse of Topic.String.
func ParseTopic(s string) (Topic, error) {
	kind, scope, hasScope := strings.Cut(s, ":")
	t := Topic{Kind: TopicKind(kind)}

	switch t.Kind {
	case TopicSupportList, TopicVendorList:
		if hasScope {
			return Topic{}, fmt.Errorf("topic %q: list topics take no scope", s)
		}
		return t, nil
	case TopicSupport, TopicVendor, TopicNotifications:
		id, err := uuid.Parse(scope)
		if err != nil || id == uuid.Nil {
			return Topic{}, fmt.Errorf("topic %q: invalid scope", s)
		}
		t.Scope = id
		return t, nil
	default:
		return Topic{}, fmt.Errorf("topic %q: unknown kind", s)
	}
}

// SignalType is the kind of frame pushed to subscribers.
type SignalType string

const (
	SignalChanged SignalType = "CHANGED"
	SignalPong    SignalType = "PONG"
	SignalError   SignalType = "ERROR"
)

// Signal is the only thing the fan-out layer delivers: "topic X changed".
// It carries no message data; receivers re-fetch from the store.
type Signal struct {
	Type  SignalType `json:"type"`
	Topic string     `json:"topic,omitempty"`
	At    time.Time  `json:"at"`
	Error string     `json:"error,omitempty"`
}

// NewChangedSignal builds a change signal for the topic.
func NewChangedSignal(t Topic) Signal {
	return Signal{Type: SignalChanged, Topic: t.String(), At: time.Now().UTC()}
}
