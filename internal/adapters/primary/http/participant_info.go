package http

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// ParticipantInfoDTO represents a lightweight participant reference in responses.
type ParticipantInfoDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

func toParticipantInfoDTO(info domain.ParticipantInfo) ParticipantInfoDTO {
	return ParticipantInfoDTO{
		ID:          info.ID.String(),
		DisplayName: info.DisplayName,
		Email:       info.Email,
	}
}

// buildParticipantInfoMap joins display metadata for the given scopes. Metadata
// is decoration only, so a directory failure is logged and yields an empty map.
func buildParticipantInfoMap(
	ctx context.Context,
	directory ports.ParticipantDirectory,
	channel domain.Channel,
	ids []uuid.UUID,
	logger *slog.Logger,
) map[uuid.UUID]ParticipantInfoDTO {
	if directory == nil || len(ids) == 0 {
		return map[uuid.UUID]ParticipantInfoDTO{}
	}

	infos, err := directory.Describe(ctx, channel, ids)
	if err != nil {
		logger.WarnContext(ctx, "participant metadata unavailable",
			"channel", string(channel),
			"error", err,
		)
		return map[uuid.UUID]ParticipantInfoDTO{}
	}

	mapped := make(map[uuid.UUID]ParticipantInfoDTO, len(infos))
	for id, info := range infos {
		mapped[id] = toParticipantInfoDTO(info)
	}

	return mapped
}
