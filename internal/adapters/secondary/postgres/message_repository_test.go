package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessageRepo(t *testing.T) *MessageRepository {
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	return NewMessageRepository(testPool)
}

func insert(t *testing.T, repo *MessageRepository, ch domain.Channel, scope uuid.UUID, role domain.SenderRole, body string) *domain.Message {
	t.Helper()
	msg, err := domain.NewMessage(domain.MessageParams{Channel: ch, ScopeID: scope, SenderRole: role, Body: body})
	require.NoError(t, err)
	created, err := repo.Create(context.Background(), msg)
	require.NoError(t, err)
	return created
}

func TestMessageRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newMessageRepo(t)
	userID := seedUser(t, "Ada")

	first := insert(t, repo, domain.ChannelSupport, userID, domain.RoleUser, "Where is my order?")
	second := insert(t, repo, domain.ChannelSupport, userID, domain.RoleAdmin, "Checking now")

	assert.False(t, first.IsRead)
	assert.Equal(t, userID, first.ScopeID)
	assert.Nil(t, first.Subject)
	assert.Greater(t, second.ID, first.ID)
	assert.False(t, second.CreatedAt.Before(first.CreatedAt))

	msgs, err := repo.ListByScope(ctx, domain.ChannelSupport, userID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, second.ID, msgs[1].ID)

	empty, err := repo.ListByScope(ctx, domain.ChannelSupport, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMessageRepository_VendorColumns(t *testing.T) {
	ctx := context.Background()
	repo := newMessageRepo(t)
	vendorID := seedVendor(t, "Lamp Co")
	adminID := uuid.New()
	subject := "Payout question"

	root, err := repo.Create(ctx, &domain.Message{
		Channel: domain.ChannelVendor, ScopeID: vendorID, SenderRole: domain.RoleVendor,
		Subject: &subject, Body: "When is my payout?",
	})
	require.NoError(t, err)
	require.NotNil(t, root.Subject)
	assert.Equal(t, subject, *root.Subject)

	reply, err := repo.Create(ctx, &domain.Message{
		Channel: domain.ChannelVendor, ScopeID: vendorID, SenderRole: domain.RoleAdmin,
		AdminID: &adminID, Body: "Friday", ParentID: &root.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, &adminID, reply.AdminID)
	assert.Equal(t, &root.ID, reply.ParentID)

	got, err := repo.GetByID(ctx, domain.ChannelVendor, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, reply.ID, got.ID)

	_, err = repo.GetByID(ctx, domain.ChannelVendor, reply.ID+1000)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMessageRepository_UnknownScope(t *testing.T) {
	repo := newMessageRepo(t)

	_, err := repo.Create(context.Background(), &domain.Message{
		Channel: domain.ChannelSupport, ScopeID: uuid.New(), SenderRole: domain.RoleUser, Body: "hi",
	})

	assert.ErrorIs(t, err, apperrors.ErrScopeUnresolved)
	assert.True(t, apperrors.IsValidation(err))
}

// Two concurrent inserts into the same conversation both succeed and the
// list stays totally ordered by (created_at, id).
func TestMessageRepository_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	repo := newMessageRepo(t)
	userID := seedUser(t, "Concurrent")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, _ := domain.NewMessage(domain.MessageParams{
				Channel: domain.ChannelSupport, ScopeID: userID, SenderRole: domain.RoleUser, Body: "ping",
			})
			_, err := repo.Create(ctx, msg)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := repo.ListByScope(ctx, domain.ChannelSupport, userID)
	require.NoError(t, err)
	require.Len(t, msgs, 10)
	for i := 1; i < len(msgs); i++ {
		prev, cur := msgs[i-1], msgs[i]
		assert.False(t, cur.CreatedAt.Before(prev.CreatedAt))
		if cur.CreatedAt.Equal(prev.CreatedAt) {
			assert.Greater(t, cur.ID, prev.ID)
		}
	}
}

func TestMessageRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	repo := newMessageRepo(t)
	vendorID := seedVendor(t, "Mark Read Ltd")

	a := insert(t, repo, domain.ChannelVendor, vendorID, domain.RoleVendor, "one")
	insert(t, repo, domain.ChannelVendor, vendorID, domain.RoleVendor, "two")
	insert(t, repo, domain.ChannelVendor, vendorID, domain.RoleAdmin, "reply")

	count, err := repo.CountUnread(ctx, domain.ChannelVendor, vendorID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	t.Run("through id bounds the update", func(t *testing.T) {
		n, err := repo.MarkRead(ctx, ports.MarkReadRepoParams{
			Channel: domain.ChannelVendor, ScopeID: vendorID, ViewerRole: domain.RoleAdmin, ThroughID: &a.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("remaining rows then idempotent", func(t *testing.T) {
		params := ports.MarkReadRepoParams{Channel: domain.ChannelVendor, ScopeID: vendorID, ViewerRole: domain.RoleAdmin}

		n, err := repo.MarkRead(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.MarkRead(ctx, params)
		require.NoError(t, err)
		assert.Zero(t, n)

		count, err := repo.CountUnread(ctx, domain.ChannelVendor, vendorID, domain.RoleAdmin)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("viewer's own messages stay unread for the other side", func(t *testing.T) {
		count, err := repo.CountUnread(ctx, domain.ChannelVendor, vendorID, domain.RoleVendor)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestMessageRepository_ListScopes(t *testing.T) {
	ctx := context.Background()
	repo := newMessageRepo(t)
	older := seedUser(t, "Older")
	newer := seedUser(t, "Newer")

	insert(t, repo, domain.ChannelSupport, older, domain.RoleUser, "first question")
	insert(t, repo, domain.ChannelSupport, newer, domain.RoleUser, "hello")
	insert(t, repo, domain.ChannelSupport, newer, domain.RoleAdmin, "hi there")

	summaries, err := repo.ListScopes(ctx, domain.ChannelSupport, domain.RoleAdmin)
	require.NoError(t, err)

	byScope := map[uuid.UUID]*domain.ConversationSummary{}
	var order []uuid.UUID
	for _, s := range summaries {
		byScope[s.ScopeID] = s
		if s.ScopeID == older || s.ScopeID == newer {
			order = append(order, s.ScopeID)
		}
	}
	require.Equal(t, []uuid.UUID{newer, older}, order)

	assert.Equal(t, "hi there", byScope[newer].LastBody)
	assert.Equal(t, domain.RoleAdmin, byScope[newer].LastSenderRole)
	assert.Equal(t, int64(2), byScope[newer].MessageCount)
	assert.Equal(t, int64(1), byScope[newer].Unread)
	assert.Equal(t, int64(1), byScope[older].Unread)

	total, err := repo.CountUnreadTotal(ctx, domain.ChannelSupport, domain.RoleAdmin)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(2))
}
