package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/lorrc/conversation-service/internal/adapters/primary/http/middleware"
	"github.com/lorrc/conversation-service/internal/adapters/primary/validation"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
)

// requireActor extracts the authenticated participant or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Participant, bool) {
	actor, ok := mw.GetActor(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Not authorized",
			Code:  "UNAUTHORIZED",
		})
		return domain.Participant{}, false
	}
	return actor, true
}

// channelParam parses the {channel} path segment.
func channelParam(r *http.Request) (domain.Channel, error) {
	ch, err := domain.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		return "", apperrors.NewBadRequestError(err, "Unknown channel")
	}
	return ch, nil
}

// scopeParam parses the {scopeID} path segment.
func scopeParam(r *http.Request) (uuid.UUID, error) {
	return validation.ParseUUID("scope id", chi.URLParam(r, "scopeID"))
}
