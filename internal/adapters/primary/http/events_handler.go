package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lorrc/conversation-service/internal/adapters/primary/validation"
	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// EventsHandler accepts business events from order and catalog collaborators.
// With a queue the event is dispatched asynchronously; without one it is
// emitted inline.
type EventsHandler struct {
	queue         ports.BusinessEventQueue
	notifications ports.NotificationService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewEventsHandler creates a new events handler. queue may be nil.
func NewEventsHandler(
	queue ports.BusinessEventQueue,
	notifications ports.NotificationService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *EventsHandler {
	return &EventsHandler{
		queue:         queue,
		notifications: notifications,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "events"),
	}
}

// RegisterRoutes registers the /internal/events routes.
func (h *EventsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleBusinessEvent)
}

// BusinessEventRequest defines the expected JSON body for a business event
type BusinessEventRequest struct {
	Type            string `json:"type"`
	VendorProfileID string `json:"vendorProfileId"`
	OrderID         string `json:"orderId,omitempty"`
	ProductID       string `json:"productId,omitempty"`
	ProductName     string `json:"productName,omitempty"`
	Rating          int    `json:"rating,omitempty"`
	Amount          string `json:"amount,omitempty"`
	Title           string `json:"title,omitempty"`
	Body            string `json:"body,omitempty"`
}

// Validate validates the business event request
func (r *BusinessEventRequest) Validate() error {
	types := make([]string, 0, len(domain.NotificationTypes))
	for _, t := range domain.NotificationTypes {
		types = append(types, string(t))
	}

	v := validation.NewValidator()

	v.Required("type", r.Type).
		OneOf("type", r.Type, types)

	v.Required("vendorProfileId", r.VendorProfileID).
		UUID("vendorProfileId", r.VendorProfileID)

	v.UUID("orderId", r.OrderID).
		UUID("productId", r.ProductID).
		Custom("rating", r.Rating >= 0 && r.Rating <= 5, "Must be between 0 and 5").
		MaxLength("title", r.Title, domain.MaxNotificationTitleLength).
		MaxLength("body", r.Body, domain.MaxNotificationBodyLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// toDomain converts a validated request.
func (r *BusinessEventRequest) toDomain() domain.BusinessEvent {
	event := domain.BusinessEvent{
		Type:            r.Type,
		VendorProfileID: uuid.MustParse(r.VendorProfileID),
		ProductName:     r.ProductName,
		Rating:          r.Rating,
		Amount:          r.Amount,
		Title:           r.Title,
		Body:            r.Body,
	}
	if r.OrderID != "" {
		id := uuid.MustParse(r.OrderID)
		event.OrderID = &id
	}
	if r.ProductID != "" {
		id := uuid.MustParse(r.ProductID)
		event.ProductID = &id
	}
	return event
}

// QueuedResponse acknowledges an event handed to the queue.
type QueuedResponse struct {
	Status string `json:"status"`
}

// HandleBusinessEvent handles POST /internal/events
func (h *EventsHandler) HandleBusinessEvent(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[BusinessEventRequest](w, r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	event := req.toDomain()

	if h.queue != nil {
		if err := h.queue.Enqueue(r.Context(), event); err != nil {
			h.errorHandler.Handle(w, r, err)
			return
		}
		h.logger.InfoContext(r.Context(), "business event queued",
			"type", event.Type,
			"vendor_profile_id", event.VendorProfileID,
		)
		WriteAccepted(w, QueuedResponse{Status: "queued"})
		return
	}

	n, err := h.notifications.HandleBusinessEvent(r.Context(), event)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, toNotificationDTO(n))
}
