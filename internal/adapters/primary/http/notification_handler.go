package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/conversation-service/internal/adapters/primary/validation"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
	"github.com/lorrc/conversation-service/internal/core/services"
)

// NotificationHandler serves a vendor's own notification feed
type NotificationHandler struct {
	notifications ports.NotificationService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	notifications ports.NotificationService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "notification"),
	}
}

// RegisterRoutes registers the /notifications routes.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/unread", h.HandleUnreadCount)
	r.Post("/read-all", h.HandleMarkAllRead)
}

// NotificationDTO defines the JSON response for notifications.
type NotificationDTO struct {
	ID              int64   `json:"id"`
	VendorProfileID string  `json:"vendorProfileId"`
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	Body            string  `json:"body"`
	OrderID         *string `json:"orderId,omitempty"`
	ProductID       *string `json:"productId,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	IsRead          bool    `json:"isRead"`
}

func toNotificationDTO(n *domain.Notification) NotificationDTO {
	dto := NotificationDTO{
		ID:              n.ID,
		VendorProfileID: n.VendorProfileID.String(),
		Type:            string(n.Type),
		Title:           n.Title,
		Body:            n.Body,
		CreatedAt:       n.CreatedAt.Format(time.RFC3339Nano),
		IsRead:          n.IsRead,
	}
	if n.OrderID != nil {
		value := n.OrderID.String()
		dto.OrderID = &value
	}
	if n.ProductID != nil {
		value := n.ProductID.String()
		dto.ProductID = &value
	}
	return dto
}

// HandleList handles GET /notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.requireVendor(w, r)
	if !ok {
		return
	}

	limit := validation.ParseIntQueryParam(r, "limit", services.DefaultNotificationLimit)

	items, err := h.notifications.List(r.Context(), vendor.ID, limit)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := make([]NotificationDTO, 0, len(items))
	for _, n := range items {
		response = append(response, toNotificationDTO(n))
	}
	WriteList(w, response)
}

// HandleUnreadCount handles GET /notifications/unread
func (h *NotificationHandler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.requireVendor(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), vendor.ID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCount(w, count)
}

// HandleMarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	vendor, ok := h.requireVendor(w, r)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), vendor.ID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCount(w, updated)
}

func (h *NotificationHandler) requireVendor(w http.ResponseWriter, r *http.Request) (domain.Participant, bool) {
	actor, ok := requireActor(w, r)
	if !ok {
		return domain.Participant{}, false
	}
	if actor.Kind != domain.ParticipantVendor {
		h.errorHandler.Handle(w, r, apperrors.ErrForbidden)
		return domain.Participant{}, false
	}
	return actor, true
}
