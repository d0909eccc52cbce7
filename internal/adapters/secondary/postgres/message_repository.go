package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
	"github.com/lorrc/conversation-service/internal/core/utils"
)

// messageTable describes how one channel is laid out in the database. Support
// rows carry no subject, parent or admin id, so those columns select as NULL.
type messageTable struct {
	name     string
	scopeCol string
	columns  string
}

var messageTables = map[domain.Channel]messageTable{
	domain.ChannelSupport: {
		name:     "support_messages",
		scopeCol: "user_id",
		columns:  "id, user_id, sender_role, NULL::uuid, NULL::text, body, NULL::bigint, created_at, is_read",
	},
	domain.ChannelVendor: {
		name:     "vendor_messages",
		scopeCol: "vendor_profile_id",
		columns:  "id, vendor_profile_id, sender_role, admin_id, subject, body, parent_id, created_at, is_read",
	},
}

func tableFor(ch domain.Channel) (messageTable, error) {
	t, ok := messageTables[ch]
	if !ok {
		_, err := domain.ParseChannel(string(ch))
		return messageTable{}, err
	}
	return t, nil
}

// MessageRepository stores both message streams.
type MessageRepository struct {
	pool *pgxpool.Pool
}

var _ ports.MessageRepository = (*MessageRepository)(nil)

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create appends a message. Inserts into one conversation are serialized by a
// transaction-scoped advisory lock so created_at never goes backwards within
// the conversation; ties are broken by id.
func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	t, err := tableFor(msg.Channel)
	if err != nil {
		return nil, err
	}

	var created *domain.Message
	err = inTx(ctx, r.pool, func(q DBTX) error {
		if _, err := q.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
			string(msg.Channel)+":"+msg.ScopeID.String(),
		); err != nil {
			return err
		}

		var row pgx.Row
		switch msg.Channel {
		case domain.ChannelSupport:
			row = q.QueryRow(ctx, fmt.Sprintf(`
INSERT INTO support_messages (user_id, sender_role, body, is_read, created_at)
VALUES ($1, $2, $3, false,
        GREATEST(clock_timestamp(), (SELECT max(created_at) FROM support_messages WHERE user_id = $1)))
RETURNING %s`, t.columns),
				utils.ToUUID(msg.ScopeID), string(msg.SenderRole), msg.Body,
			)
		default:
			row = q.QueryRow(ctx, fmt.Sprintf(`
INSERT INTO vendor_messages (vendor_profile_id, sender_role, admin_id, subject, body, parent_id, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, false,
        GREATEST(clock_timestamp(), (SELECT max(created_at) FROM vendor_messages WHERE vendor_profile_id = $1)))
RETURNING %s`, t.columns),
				utils.ToUUID(msg.ScopeID), string(msg.SenderRole), utils.ToNullUUID(msg.AdminID),
				utils.ToNullString(msg.Subject), msg.Body, utils.ToNullInt8(msg.ParentID),
			)
		}

		created, err = scanMessage(row, msg.Channel)
		return err
	})
	if err != nil {
		return nil, mapError("create message", err)
	}
	return created, nil
}

// GetByID fetches a single message of a channel.
func (r *MessageRepository) GetByID(ctx context.Context, channel domain.Channel, id int64) (*domain.Message, error) {
	t, err := tableFor(channel)
	if err != nil {
		return nil, err
	}

	q := GetDBTX(ctx, r.pool)
	row := q.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, t.columns, t.name), id)
	msg, err := scanMessage(row, channel)
	if err != nil {
		return nil, mapError("get message", err)
	}
	return msg, nil
}

// ListByScope returns a conversation oldest first.
func (r *MessageRepository) ListByScope(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) ([]*domain.Message, error) {
	t, err := tableFor(channel)
	if err != nil {
		return nil, err
	}

	q := GetDBTX(ctx, r.pool)
	rows, err := q.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY created_at ASC, id ASC`, t.columns, t.name, t.scopeCol),
		utils.ToUUID(scopeID),
	)
	if err != nil {
		return nil, mapError("list messages", err)
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows, channel)
		if err != nil {
			return nil, mapError("scan message", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list messages", err)
	}
	return messages, nil
}

// ListScopes summarizes every conversation of the channel, most recently
// active first. Unread is counted from the viewer's side.
func (r *MessageRepository) ListScopes(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) ([]*domain.ConversationSummary, error) {
	t, err := tableFor(channel)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
WITH last AS (
    SELECT DISTINCT ON (%[2]s) %[2]s AS scope_id, created_at, body, sender_role
    FROM %[1]s
    ORDER BY %[2]s, created_at DESC, id DESC
), agg AS (
    SELECT %[2]s AS scope_id,
           COUNT(*) AS total,
           COUNT(*) FILTER (WHERE is_read = false AND sender_role <> $1) AS unread
    FROM %[1]s
    GROUP BY %[2]s
)
SELECT last.scope_id, last.created_at, last.body, last.sender_role, agg.total, agg.unread
FROM last
JOIN agg ON agg.scope_id = last.scope_id
ORDER BY last.created_at DESC, last.scope_id
`, t.name, t.scopeCol)

	q := GetDBTX(ctx, r.pool)
	rows, err := q.Query(ctx, query, string(viewer))
	if err != nil {
		return nil, mapError("list conversations", err)
	}
	defer rows.Close()

	summaries := make([]*domain.ConversationSummary, 0)
	for rows.Next() {
		var (
			scope    pgtype.UUID
			lastAt   time.Time
			lastBody string
			lastRole string
			total    int64
			unread   int64
		)
		if err := rows.Scan(&scope, &lastAt, &lastBody, &lastRole, &total, &unread); err != nil {
			return nil, mapError("scan conversation", err)
		}
		summaries = append(summaries, &domain.ConversationSummary{
			Channel:        channel,
			ScopeID:        utils.FromUUID(scope),
			LastMessageAt:  lastAt,
			LastBody:       lastBody,
			LastSenderRole: domain.SenderRole(lastRole),
			MessageCount:   total,
			Unread:         unread,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list conversations", err)
	}
	return summaries, nil
}

// MarkRead is a single conditional update; rows already read or authored by
// the viewer are never touched, which keeps it idempotent.
func (r *MessageRepository) MarkRead(ctx context.Context, params ports.MarkReadRepoParams) (int64, error) {
	t, err := tableFor(params.Channel)
	if err != nil {
		return 0, err
	}

	q := GetDBTX(ctx, r.pool)
	tag, err := q.Exec(ctx, fmt.Sprintf(`
UPDATE %s SET is_read = true
WHERE %s = $1
  AND sender_role <> $2
  AND is_read = false
  AND ($3::bigint IS NULL OR id <= $3)`, t.name, t.scopeCol),
		utils.ToUUID(params.ScopeID), string(params.ViewerRole), utils.ToNullInt8(params.ThroughID),
	)
	if err != nil {
		return 0, mapError("mark read", err)
	}
	return tag.RowsAffected(), nil
}

// CountUnread counts one conversation from the viewer's side.
func (r *MessageRepository) CountUnread(ctx context.Context, channel domain.Channel, scopeID uuid.UUID, viewer domain.SenderRole) (int64, error) {
	t, err := tableFor(channel)
	if err != nil {
		return 0, err
	}

	var n int64
	q := GetDBTX(ctx, r.pool)
	err = q.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE %s = $1 AND sender_role <> $2 AND is_read = false`, t.name, t.scopeCol),
		utils.ToUUID(scopeID), string(viewer),
	).Scan(&n)
	if err != nil {
		return 0, mapError("count unread", err)
	}
	return n, nil
}

// CountUnreadTotal counts across every conversation of the channel.
func (r *MessageRepository) CountUnreadTotal(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) (int64, error) {
	t, err := tableFor(channel)
	if err != nil {
		return 0, err
	}

	var n int64
	q := GetDBTX(ctx, r.pool)
	err = q.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE sender_role <> $1 AND is_read = false`, t.name),
		string(viewer),
	).Scan(&n)
	if err != nil {
		return 0, mapError("count unread", err)
	}
	return n, nil
}

func scanMessage(row pgx.Row, channel domain.Channel) (*domain.Message, error) {
	var (
		id        int64
		scope     pgtype.UUID
		role      string
		adminID   pgtype.UUID
		subject   pgtype.Text
		body      string
		parentID  pgtype.Int8
		createdAt time.Time
		isRead    bool
	)
	if err := row.Scan(&id, &scope, &role, &adminID, &subject, &body, &parentID, &createdAt, &isRead); err != nil {
		return nil, err
	}
	return &domain.Message{
		ID:         id,
		Channel:    channel,
		ScopeID:    utils.FromUUID(scope),
		SenderRole: domain.SenderRole(role),
		AdminID:    utils.FromNullUUID(adminID),
		Subject:    utils.FromNullString(subject),
		Body:       body,
		ParentID:   utils.FromNullInt8(parentID),
		CreatedAt:  createdAt,
		IsRead:     isRead,
	}, nil
}
