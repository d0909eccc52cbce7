package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
	"github.com/lorrc/conversation-service/internal/core/utils"
)

// ParticipantDirectory reads the profile tables owned by the account and
// vendor services. It never writes to them.
type ParticipantDirectory struct {
	pool *pgxpool.Pool
}

var _ ports.ParticipantDirectory = (*ParticipantDirectory)(nil)

func NewParticipantDirectory(pool *pgxpool.Pool) *ParticipantDirectory {
	return &ParticipantDirectory{pool: pool}
}

func (d *ParticipantDirectory) Exists(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) (bool, error) {
	var query string
	switch channel {
	case domain.ChannelSupport:
		query = `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`
	case domain.ChannelVendor:
		query = `SELECT EXISTS (SELECT 1 FROM vendor_profiles WHERE id = $1)`
	default:
		_, err := domain.ParseChannel(string(channel))
		return false, err
	}

	var exists bool
	q := GetDBTX(ctx, d.pool)
	if err := q.QueryRow(ctx, query, utils.ToUUID(scopeID)).Scan(&exists); err != nil {
		return false, mapError("resolve scope", err)
	}
	return exists, nil
}

func (d *ParticipantDirectory) Describe(ctx context.Context, channel domain.Channel, ids []uuid.UUID) (map[uuid.UUID]domain.ParticipantInfo, error) {
	out := make(map[uuid.UUID]domain.ParticipantInfo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var query string
	switch channel {
	case domain.ChannelSupport:
		query = `SELECT id, full_name, email FROM profiles WHERE id = ANY($1)`
	case domain.ChannelVendor:
		query = `SELECT id, business_name, email FROM vendor_profiles WHERE id = ANY($1)`
	default:
		_, err := domain.ParseChannel(string(channel))
		return nil, err
	}

	params := make([]pgtype.UUID, len(ids))
	for i, id := range ids {
		params[i] = utils.ToUUID(id)
	}

	q := GetDBTX(ctx, d.pool)
	rows, err := q.Query(ctx, query, params)
	if err != nil {
		return nil, mapError("describe participants", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    pgtype.UUID
			name  string
			email string
		)
		if err := rows.Scan(&id, &name, &email); err != nil {
			return nil, mapError("scan participant", err)
		}
		info := domain.ParticipantInfo{ID: utils.FromUUID(id), DisplayName: name, Email: email}
		out[info.ID] = info
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("describe participants", err)
	}
	return out, nil
}
