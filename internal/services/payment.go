package services

import (
	"context"
	"errors"
	"fmt"

	"muvbackoffice/internal/feed"
	"muvbackoffice/internal/lifecycle"
	"muvbackoffice/internal/models"
)

var ErrUnknownOutcome = errors.New("unknown payment outcome")

// PaymentConfirmation is what the external payment gateway reports back.
type PaymentConfirmation struct {
	OrderID    string
	Method     string
	ExternalID string
	Outcome    string
}

// ApplyPayment maps a gateway outcome onto the order's payment fields in a
// single persisted write. A successful payment also moves an order still
// waiting on payment into received, same write.
func (s *OrderService) ApplyPayment(ctx context.Context, conf PaymentConfirmation) (*models.Order, error) {
	status, err := paymentStatusForOutcome(conf.Outcome)
	if err != nil {
		return nil, err
	}

	change := lifecycle.Change{
		PaymentStatus: &status,
		PaymentDetails: &models.PaymentDetails{
			Method:     conf.Method,
			ExternalID: conf.ExternalID,
		},
	}

	if status == models.PaymentPaid {
		current, err := s.Store.GetOrder(ctx, conf.OrderID)
		if err != nil {
			return nil, err
		}
		if current.Status == models.StatusPending || current.Status == models.StatusPendingPayment {
			received := models.StatusReceived
			change.Status = &received
		}
	}

	order, err := s.Store.UpdateOrder(ctx, conf.OrderID, change)
	if err != nil {
		return nil, err
	}

	s.publish(feed.Event{Type: feed.EventOrderUpdated, Order: order})
	return order, nil
}

func paymentStatusForOutcome(outcome string) (models.PaymentStatus, error) {
	switch outcome {
	case "paid", "success":
		return models.PaymentPaid, nil
	case "failed":
		return models.PaymentFailed, nil
	case "refunded":
		return models.PaymentRefunded, nil
	case "partial_refund":
		return models.PaymentPartialRefund, nil
	case "completed":
		return models.PaymentCompleted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
}
