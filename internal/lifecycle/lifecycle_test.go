package lifecycle

import (
	"testing"

	"muvbackoffice/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	for _, s := range []models.OrderStatus{
		models.StatusPending, models.StatusPendingPayment, models.StatusReceived,
		models.StatusProcessing, models.StatusShipped, models.StatusDelivered,
		models.StatusCompleted, models.StatusCancelled, models.StatusFailed,
	} {
		assert.True(t, Valid(s), "status %q", s)
	}
	assert.False(t, Valid("on_hold"))
	assert.False(t, Valid(""))
}

func TestNormalizeFallsBackToPending(t *testing.T) {
	assert.Equal(t, models.StatusShipped, Normalize(models.StatusShipped))
	assert.Equal(t, models.StatusPending, Normalize("totally_unknown"))
	assert.Equal(t, models.StatusPending, Normalize(""))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusCompleted))
	assert.True(t, IsTerminal(models.StatusCancelled))
	assert.True(t, IsTerminal(models.StatusFailed))
	assert.False(t, IsTerminal(models.StatusPending))
	assert.False(t, IsTerminal(models.StatusShipped))
}

func TestExpected(t *testing.T) {
	// Forward path.
	assert.True(t, Expected(models.StatusPending, models.StatusReceived))
	assert.True(t, Expected(models.StatusPending, models.StatusPendingPayment))
	assert.True(t, Expected(models.StatusProcessing, models.StatusShipped))
	assert.True(t, Expected(models.StatusDelivered, models.StatusCompleted))

	// Cancel/fail from any non-terminal state.
	assert.True(t, Expected(models.StatusShipped, models.StatusCancelled))
	assert.True(t, Expected(models.StatusPending, models.StatusFailed))

	// No-op transitions are unremarkable.
	assert.True(t, Expected(models.StatusShipped, models.StatusShipped))

	// Backwards or out of a terminal state is unexpected, though never blocked.
	assert.False(t, Expected(models.StatusShipped, models.StatusPending))
	assert.False(t, Expected(models.StatusCompleted, models.StatusProcessing))
	assert.False(t, Expected(models.StatusCancelled, models.StatusFailed))
}

func TestChangeValidate(t *testing.T) {
	assert.ErrorIs(t, Change{}.Validate(), ErrEmptyChange)

	bad := models.OrderStatus("bogus")
	assert.ErrorIs(t, Change{Status: &bad}.Validate(), ErrUnknownStatus)

	badPay := models.PaymentStatus("bogus")
	assert.ErrorIs(t, Change{PaymentStatus: &badPay}.Validate(), ErrUnknownPaymentStatus)

	shipped := models.StatusShipped
	paid := models.PaymentPaid
	assert.NoError(t, Change{Status: &shipped, PaymentStatus: &paid}.Validate())

	details := &models.PaymentDetails{Method: "card", ExternalID: "pi_1"}
	assert.NoError(t, Change{PaymentDetails: details}.Validate())
}
