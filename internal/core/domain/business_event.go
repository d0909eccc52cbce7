package domain

import (
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
)

// BusinessEvent is the payload order/catalog collaborators hand to the
// notification dispatcher.
type BusinessEvent struct {
	Type            string     `json:"type"`
	VendorProfileID uuid.UUID  `json:"vendorProfileId"`
	OrderID         *uuid.UUID `json:"orderId,omitempty"`
	ProductID       *uuid.UUID `json:"productId,omitempty"`
	ProductName     string     `json:"productName,omitempty"`
	Rating          int        `json:"rating,omitempty"`
	Amount          string     `json:"amount,omitempty"`
	Title           string     `json:"title,omitempty"`
	Body            string     `json:"body,omitempty"`
}

// ToNotificationParams maps a business event onto the notification the vendor sees.
func (e BusinessEvent) ToNotificationParams() (NotificationParams, error) {
	typ, err := ParseNotificationType(e.Type)
	if err != nil {
		return NotificationParams{}, err
	}

	p := NotificationParams{
		VendorProfileID: e.VendorProfileID,
		Type:            string(typ),
		OrderID:         e.OrderID,
		ProductID:       e.ProductID,
	}

	switch typ {
	case NotificationOrderPlaced:
		p.Title = "New Order Received!"
		if e.ProductName != "" {
			p.Body = fmt.Sprintf("A customer placed an order for %s.", e.ProductName)
		} else {
			p.Body = "A customer placed an order for one of your products."
		}
	case NotificationProductReviewed:
		p.Title = "New Product Review"
		switch {
		case e.ProductName != "" && e.Rating > 0:
			p.Body = fmt.Sprintf("%s received a %d-star review.", e.ProductName, e.Rating)
		case e.ProductName != "":
			p.Body = fmt.Sprintf("%s received a new review.", e.ProductName)
		default:
			p.Body = "One of your products received a new review."
		}
	case NotificationPayoutReady:
		p.Title = "Payout Ready"
		if e.Amount != "" {
			p.Body = fmt.Sprintf("A payout of %s is ready for withdrawal.", e.Amount)
		} else {
			p.Body = "A new payout is ready for withdrawal."
		}
	case NotificationSystemMessage:
		if e.Title == "" {
			return NotificationParams{}, apperrors.ErrNotificationTitleRequired
		}
		p.Title = e.Title
		p.Body = e.Body
	}

	// Explicit text from the collaborator wins over the templates.
	if e.Title != "" {
		p.Title = e.Title
	}
	if e.Body != "" {
		p.Body = e.Body
	}

	return p, nil
}
