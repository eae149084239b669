package models

import "time"

type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusReceived       OrderStatus = "received"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
	StatusFailed         OrderStatus = "failed"
)

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentPartialRefund PaymentStatus = "partial_refund"
	PaymentCompleted     PaymentStatus = "completed"
)

// PaymentDetails is supplied by the payment gateway on confirmation.
type PaymentDetails struct {
	Method     string
	ExternalID string
}

type Order struct {
	ID              string
	UserID          string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ProductType     string
	Quantity        int
	Specifications  string
	DeliveryAddress string
	TotalAmount     float64
	TrackingID      string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	PaymentDetails  *PaymentDetails
	CreatedAt       time.Time
	LastUpdated     time.Time
}

type Admin struct {
	Email string
	Name  string
}

// Session is the material behind one authenticated admin browser session.
type Session struct {
	Token     string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
