package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/conversation-service/internal/core/domain"
)

func TestTokenManager_UsesConfiguredTTL(t *testing.T) {
	ttl := 2 * time.Hour
	tm := NewTokenManager("test-secret", ttl)

	start := time.Now()

	token, err := tm.GenerateToken(domain.NewUser(uuid.New()))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)

	expectedExpiry := start.Add(ttl)
	assert.WithinDuration(t, expectedExpiry, claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenManager_RoundTripsActor(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	for _, actor := range []domain.Participant{
		domain.NewUser(uuid.New()),
		domain.NewVendor(uuid.New()),
		domain.NewAdmin(uuid.New()),
	} {
		token, err := tm.GenerateToken(actor)
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)

		got, err := claims.Actor()
		require.NoError(t, err)
		assert.Equal(t, actor, got)
		assert.Equal(t, actor.ID.String(), claims.Subject)
	}
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.GenerateToken(domain.NewVendor(uuid.New()))
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Millisecond)

	token, err := tm.GenerateToken(domain.NewAdmin(uuid.New()))
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestClaims_Actor(t *testing.T) {
	_, err := (&Claims{ActorKind: "guest", ActorID: uuid.New()}).Actor()
	assert.ErrorIs(t, err, ErrUnknownActorKind)

	_, err = (&Claims{ActorKind: domain.ParticipantUser}).Actor()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
