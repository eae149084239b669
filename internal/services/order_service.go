package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"muvbackoffice/internal/apperr"
	"muvbackoffice/internal/dedup"
	"muvbackoffice/internal/feed"
	"muvbackoffice/internal/lifecycle"
	"muvbackoffice/internal/models"

	"github.com/google/uuid"
)

var (
	ErrMissingUserID   = errors.New("missing user id")
	ErrMissingProduct  = errors.New("missing product type")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidAmount   = errors.New("total amount must not be negative")
)

// OrderStorage is the persistence boundary for order records.
type OrderStorage interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	CountRecentMatches(ctx context.Context, key dedup.Key, window time.Duration) (int, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error)
	ListRecentOrders(ctx context.Context, limit int) ([]*models.Order, error)
	ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]*models.Order, error)
	UpdateOrder(ctx context.Context, id string, change lifecycle.Change) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type Publisher interface {
	Publish(ev feed.Event)
}

type OrderDraft struct {
	UserID          string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ProductType     string
	Quantity        int
	Specifications  string
	DeliveryAddress string
	TotalAmount     float64
}

type OrderService struct {
	Store       OrderStorage
	Guard       *dedup.Guard
	Feed        Publisher
	DedupWindow time.Duration
	Now         func() time.Time
}

// Create commits a new order exactly once per logical purchase intent.
// Two guards suppress duplicates: the process-local in-flight set for
// re-entrant calls, and the recent-match query for independent calls that
// land within the dedup window (double-click across page reloads).
func (s *OrderService) Create(ctx context.Context, draft OrderDraft) (*models.Order, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	key := dedup.Key{
		UserID:      draft.UserID,
		ProductType: draft.ProductType,
		TotalAmount: draft.TotalAmount,
	}
	release, err := s.Guard.Acquire(key)
	if err != nil {
		if errors.Is(err, dedup.ErrInFlight) {
			return nil, fmt.Errorf("%w: create already in flight", apperr.ErrDuplicateSubmission)
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	defer release()

	n, err := s.Store.CountRecentMatches(ctx, key, s.window())
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: matching order created within the last %s", apperr.ErrDuplicateSubmission, s.window())
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		UserID:          draft.UserID,
		CustomerName:    draft.CustomerName,
		CustomerEmail:   draft.CustomerEmail,
		CustomerPhone:   draft.CustomerPhone,
		ProductType:     draft.ProductType,
		Quantity:        draft.Quantity,
		Specifications:  draft.Specifications,
		DeliveryAddress: draft.DeliveryAddress,
		TotalAmount:     draft.TotalAmount,
		TrackingID:      NewTrackingID(s.now()),
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
	}
	if err := s.Store.InsertOrder(ctx, order); err != nil {
		return nil, err
	}

	s.publish(feed.Event{Type: feed.EventOrderCreated, Order: order})
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return s.Store.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*models.Order, error) {
	return s.Store.ListRecentOrders(ctx, limit)
}

func (s *OrderService) ListByStatus(ctx context.Context, status models.OrderStatus) ([]*models.Order, error) {
	return s.Store.ListOrdersByStatus(ctx, lifecycle.Normalize(status))
}

// Update applies a partial change. Immutable attributes (userId, productType,
// totalAmount, trackingId) are not representable in a Change, so they cannot
// be rewritten from here. last_updated is bumped on every call.
func (s *OrderService) Update(ctx context.Context, id string, change lifecycle.Change) (*models.Order, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}

	if change.Status != nil {
		current, err := s.Store.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		if !lifecycle.Expected(current.Status, *change.Status) {
			// Manual override flexibility: unusual edges are allowed, just flagged.
			log.Printf("order %s: unexpected status transition %s -> %s", id, current.Status, *change.Status)
		}
	}

	order, err := s.Store.UpdateOrder(ctx, id, change)
	if err != nil {
		return nil, err
	}

	s.publish(feed.Event{Type: feed.EventOrderUpdated, Order: order})
	return order, nil
}

// Delete is an unconditional hard delete. Human confirmation is the admin
// UI's responsibility; here it is only audit-logged.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.Store.DeleteOrder(ctx, id); err != nil {
		return err
	}
	log.Printf("order %s hard-deleted by admin action", id)
	s.publish(feed.Event{Type: feed.EventOrderDeleted, OrderID: id})
	return nil
}

func (s *OrderService) publish(ev feed.Event) {
	if s.Feed != nil {
		s.Feed.Publish(ev)
	}
}

func (s *OrderService) window() time.Duration {
	if s.DedupWindow <= 0 {
		return 5 * time.Minute
	}
	return s.DedupWindow
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func validateDraft(draft OrderDraft) error {
	if draft.UserID == "" {
		return ErrMissingUserID
	}
	if draft.ProductType == "" {
		return ErrMissingProduct
	}
	if draft.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if draft.TotalAmount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
