package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
)

const (
	MaxNotificationTitleLength = 255
	MaxNotificationBodyLength  = 2000
)

// NotificationType is the closed set of vendor notification kinds.
type NotificationType string

const (
	NotificationOrderPlaced     NotificationType = "order_placed"
	NotificationProductReviewed NotificationType = "product_reviewed"
	NotificationPayoutReady     NotificationType = "payout_ready"
	NotificationSystemMessage   NotificationType = "system_message"
)

// NotificationTypes lists every accepted type.
var NotificationTypes = []NotificationType{
	NotificationOrderPlaced,
	NotificationProductReviewed,
	NotificationPayoutReady,
	NotificationSystemMessage,
}

// ParseNotificationType rejects anything outside the closed enum.
func ParseNotificationType(s string) (NotificationType, error) {
	for _, t := range NotificationTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", apperrors.ErrUnknownNotificationType
}

// Notification is an immutable vendor feed entry. Only IsRead changes, once.
type Notification struct {
	ID              int64
	VendorProfileID uuid.UUID
	Type            NotificationType
	Title           string
	Body            string
	OrderID         *uuid.UUID
	ProductID       *uuid.UUID
	CreatedAt       time.Time
	IsRead          bool
}

// NotificationParams holds the input for NewNotification.
type NotificationParams struct {
	VendorProfileID uuid.UUID
	Type            string
	Title           string
	Body            string
	OrderID         *uuid.UUID
	ProductID       *uuid.UUID
}

// NewNotification validates the params and builds an unread notification.
func NewNotification(p NotificationParams) (*Notification, error) {
	if p.VendorProfileID == uuid.Nil {
		return nil, apperrors.ErrScopeRequired
	}

	typ, err := ParseNotificationType(p.Type)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, apperrors.ErrNotificationTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxNotificationTitleLength {
		return nil, apperrors.ErrNotificationTitleTooLong
	}
	body := strings.TrimSpace(p.Body)
	if utf8.RuneCountInString(body) > MaxNotificationBodyLength {
		return nil, apperrors.ErrNotificationBodyTooLong
	}

	return &Notification{
		VendorProfileID: p.VendorProfileID,
		Type:            typ,
		Title:           title,
		Body:            body,
		OrderID:         p.OrderID,
		ProductID:       p.ProductID,
		IsRead:          false,
	}, nil
}
