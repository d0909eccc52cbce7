package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lorrc/conversation-service/internal/core/domain"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrUnknownActorKind = errors.New("token carries an unknown actor kind")
)

// Claims defines the structured data we store in the JWT. ActorID is the
// user id for users and admins, and the vendor-profile id for vendors.
type Claims struct {
	ActorKind domain.ParticipantKind `json:"actor_kind"`
	ActorID   uuid.UUID              `json:"actor_id"`
	jwt.RegisteredClaims
}

// Actor returns the participant the token was issued to.
func (c *Claims) Actor() (domain.Participant, error) {
	switch c.ActorKind {
	case domain.ParticipantUser, domain.ParticipantVendor, domain.ParticipantAdmin:
	default:
		return domain.Participant{}, ErrUnknownActorKind
	}
	if c.ActorID == uuid.Nil {
		return domain.Participant{}, ErrInvalidToken
	}
	return domain.Participant{Kind: c.ActorKind, ID: c.ActorID}, nil
}

type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secretKey: []byte(secret), ttl: ttl}
}

// GenerateToken creates a new JWT access token for the actor
func (tm *TokenManager) GenerateToken(actor domain.Participant) (string, error) {
	expirationTime := time.Now().Add(tm.ttl)
	claims := &Claims{
		ActorKind: actor.Kind,
		ActorID:   actor.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   actor.ID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ValidateToken parses and validates the token string
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
