package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic_StringRoundTrip(t *testing.T) {
	scope := uuid.New()
	topics := []domain.Topic{
		domain.ConversationTopic(domain.ChannelSupport, scope),
		domain.ConversationTopic(domain.ChannelVendor, scope),
		domain.NotificationsTopic(scope),
		domain.ListTopic(domain.ChannelSupport),
		domain.ListTopic(domain.ChannelVendor),
	}

	for _, topic := range topics {
		t.Run(topic.String(), func(t *testing.T) {
			parsed, err := domain.ParseTopic(topic.String())
			require.NoError(t, err)
			assert.Equal(t, topic, parsed)
		})
	}
}

func TestParseTopic_Rejects(t *testing.T) {
	for _, s := range []string{
		"",
		"orders:" + uuid.NewString(),
		"support",
		"support:not-a-uuid",
		"support:" + uuid.Nil.String(),
		"vendor_list:" + uuid.NewString(),
	} {
		_, err := domain.ParseTopic(s)
		assert.Error(t, err, s)
	}
}

func TestNewChangedSignal(t *testing.T) {
	topic := domain.ListTopic(domain.ChannelVendor)
	sig := domain.NewChangedSignal(topic)

	assert.Equal(t, domain.SignalChanged, sig.Type)
	assert.Equal(t, "vendor_list", sig.Topic)
	assert.False(t, sig.At.IsZero())
}
