package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
	"github.com/lorrc/conversation-service/internal/core/utils"
)

const notificationColumns = `id, vendor_profile_id, type, title, body, order_id, product_id, created_at, is_read`

type NotificationRepository struct {
	pool *pgxpool.Pool
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	const query = `
INSERT INTO vendor_notifications (vendor_profile_id, type, title, body, order_id, product_id, is_read)
VALUES ($1, $2, $3, $4, $5, $6, false)
RETURNING ` + notificationColumns

	q := GetDBTX(ctx, r.pool)
	row := q.QueryRow(ctx, query,
		utils.ToUUID(n.VendorProfileID),
		string(n.Type),
		n.Title,
		n.Body,
		utils.ToNullUUID(n.OrderID),
		utils.ToNullUUID(n.ProductID),
	)

	created, err := scanNotification(row)
	if err != nil {
		return nil, mapError("create notification", err)
	}
	return created, nil
}

func (r *NotificationRepository) ListByVendor(ctx context.Context, vendorProfileID uuid.UUID, limit int) ([]*domain.Notification, error) {
	const query = `
SELECT ` + notificationColumns + `
FROM vendor_notifications
WHERE vendor_profile_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

	q := GetDBTX(ctx, r.pool)
	rows, err := q.Query(ctx, query, utils.ToUUID(vendorProfileID), limit)
	if err != nil {
		return nil, mapError("list notifications", err)
	}
	defer rows.Close()

	items := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, mapError("scan notification", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list notifications", err)
	}
	return items, nil
}

// MarkAllRead only touches unread rows, so a repeat call reports 0.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, vendorProfileID uuid.UUID) (int64, error) {
	q := GetDBTX(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE vendor_notifications SET is_read = true WHERE vendor_profile_id = $1 AND is_read = false`,
		utils.ToUUID(vendorProfileID),
	)
	if err != nil {
		return 0, mapError("mark notifications read", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, vendorProfileID uuid.UUID) (int64, error) {
	var n int64
	q := GetDBTX(ctx, r.pool)
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM vendor_notifications WHERE vendor_profile_id = $1 AND is_read = false`,
		utils.ToUUID(vendorProfileID),
	).Scan(&n)
	if err != nil {
		return 0, mapError("count unread notifications", err)
	}
	return n, nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		id        int64
		vendorID  pgtype.UUID
		typ       string
		title     string
		body      string
		orderID   pgtype.UUID
		productID pgtype.UUID
		createdAt time.Time
		isRead    bool
	)
	if err := row.Scan(&id, &vendorID, &typ, &title, &body, &orderID, &productID, &createdAt, &isRead); err != nil {
		return nil, err
	}
	return &domain.Notification{
		ID:              id,
		VendorProfileID: utils.FromUUID(vendorID),
		Type:            domain.NotificationType(typ),
		Title:           title,
		Body:            body,
		OrderID:         utils.FromNullUUID(orderID),
		ProductID:       utils.FromNullUUID(productID),
		CreatedAt:       createdAt,
		IsRead:          isRead,
	}, nil
}
