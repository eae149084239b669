// Package lifecycle holds the order status state machine, decoupled from
// storage. Transitions are plain field replacements; any authorized caller
// may set any enumerated value. The design-intent graph is advisory only.
package lifecycle

import (
	"errors"
	"fmt"

	"muvbackoffice/internal/models"
)

var (
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrUnknownPaymentStatus = errors.New("unknown payment status")
	ErrEmptyChange          = errors.New("no fields to update")
)

var statuses = map[models.OrderStatus]struct{}{
	models.StatusPending:        {},
	models.StatusPendingPayment: {},
	models.StatusReceived:       {},
	models.StatusProcessing:     {},
	models.StatusShipped:        {},
	models.StatusDelivered:      {},
	models.StatusCompleted:      {},
	models.StatusCancelled:      {},
	models.StatusFailed:         {},
}

var paymentStatuses = map[models.PaymentStatus]struct{}{
	models.PaymentPending:       {},
	models.PaymentPaid:          {},
	models.PaymentFailed:        {},
	models.PaymentRefunded:      {},
	models.PaymentPartialRefund: {},
	models.PaymentCompleted:     {},
}

// expectedNext is the design-intent forward path. cancelled/failed are
// reachable from any non-terminal state, which Expected handles directly.
var expectedNext = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:        {models.StatusPendingPayment, models.StatusReceived},
	models.StatusPendingPayment: {models.StatusReceived},
	models.StatusReceived:       {models.StatusProcessing},
	models.StatusProcessing:     {models.StatusShipped},
	models.StatusShipped:        {models.StatusDelivered},
	models.StatusDelivered:      {models.StatusCompleted},
}

func Valid(s models.OrderStatus) bool {
	_, ok := statuses[s]
	return ok
}

func ValidPayment(p models.PaymentStatus) bool {
	_, ok := paymentStatuses[p]
	return ok
}

// Normalize maps any value outside the enumerated set to pending so that
// presentation code never has to special-case unknown statuses.
func Normalize(s models.OrderStatus) models.OrderStatus {
	if Valid(s) {
		return s
	}
	return models.StatusPending
}

func IsTerminal(s models.OrderStatus) bool {
	switch s {
	case models.StatusCompleted, models.StatusCancelled, models.StatusFailed:
		return true
	}
	return false
}

// Expected reports whether from -> to follows the design-intent graph.
// It never gates an update; callers use it to flag unusual transitions.
func Expected(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	if !IsTerminal(from) && (to == models.StatusCancelled || to == models.StatusFailed) {
		return true
	}
	for _, next := range expectedNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Change is the mutable slice of an order. Nil fields are left untouched;
// set fields land in a single persisted write.
type Change struct {
	Status         *models.OrderStatus
	PaymentStatus  *models.PaymentStatus
	PaymentDetails *models.PaymentDetails
}

func (c Change) Empty() bool {
	return c.Status == nil && c.PaymentStatus == nil && c.PaymentDetails == nil
}

func (c Change) Validate() error {
	if c.Empty() {
		return ErrEmptyChange
	}
	if c.Status != nil && !Valid(*c.Status) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, *c.Status)
	}
	if c.PaymentStatus != nil && !ValidPayment(*c.PaymentStatus) {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentStatus, *c.PaymentStatus)
	}
	return nil
}
