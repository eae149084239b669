package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"muvbackoffice/internal/apperr"
	"muvbackoffice/internal/dedup"
	"muvbackoffice/internal/feed"
	"muvbackoffice/internal/lifecycle"
	"muvbackoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory OrderStorage. It stamps timestamps from its own
// clock, standing in for the backing store's server-assigned times.
type memStore struct {
	mu         sync.Mutex
	now        func() time.Time
	orders     map[string]*models.Order
	insertGate chan struct{} // when set, InsertOrder blocks until closed
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{now: now, orders: make(map[string]*models.Order)}
}

func (m *memStore) InsertOrder(_ context.Context, order *models.Order) error {
	if m.insertGate != nil {
		<-m.insertGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order.CreatedAt = m.now()
	order.LastUpdated = order.CreatedAt
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *memStore) CountRecentMatches(_ context.Context, key dedup.Key, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-window)
	n := 0
	for _, o := range m.orders {
		if o.UserID == key.UserID && o.ProductType == key.ProductType &&
			o.TotalAmount == key.TotalAmount && o.CreatedAt.After(cutoff) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (m *memStore) ListOrdersByUser(_ context.Context, userID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStore) ListRecentOrders(_ context.Context, limit int) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		clone := *o
		out = append(out, &clone)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) ListOrdersByStatus(_ context.Context, status models.OrderStatus) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.Status == status {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStore) UpdateOrder(_ context.Context, id string, change lifecycle.Change) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if change.Status != nil {
		o.Status = *change.Status
	}
	if change.PaymentStatus != nil {
		o.PaymentStatus = *change.PaymentStatus
	}
	if change.PaymentDetails != nil {
		details := *change.PaymentDetails
		o.PaymentDetails = &details
	}
	o.LastUpdated = m.now()
	clone := *o
	return &clone, nil
}

func (m *memStore) DeleteOrder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

type recordingFeed struct {
	mu     sync.Mutex
	events []feed.Event
}

func (r *recordingFeed) Publish(ev feed.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// clock is a settable test time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestService(c *clock) (*OrderService, *memStore, *recordingFeed) {
	st := newMemStore(c.Now)
	fd := &recordingFeed{}
	svc := &OrderService{
		Store:       st,
		Guard:       dedup.NewGuard(64),
		Feed:        fd,
		DedupWindow: 5 * time.Minute,
		Now:         c.Now,
	}
	return svc, st, fd
}

func draft(userID string) OrderDraft {
	return OrderDraft{
		UserID:          userID,
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		CustomerPhone:   "+44 20 7946 0000",
		ProductType:     "Labels",
		Quantity:        100,
		Specifications:  "matte, 50x50mm",
		DeliveryAddress: "1 Analytical Way",
		TotalAmount:     500,
	}
}

var trackingPattern = regexp.MustCompile(`^MUV[0-9A-Z]+[0-9A-Z]{3}$`)

func TestCreateDefaults(t *testing.T) {
	svc, _, fd := newTestService(newClock())

	order, err := svc.Create(context.Background(), draft("u1"))
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Regexp(t, trackingPattern, order.TrackingID)
	assert.False(t, order.CreatedAt.IsZero())
	assert.Equal(t, order.CreatedAt, order.LastUpdated)

	require.Len(t, fd.events, 1)
	assert.Equal(t, feed.EventOrderCreated, fd.events[0].Type)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(newClock())
	ctx := context.Background()

	d := draft("u1")
	d.UserID = ""
	_, err := svc.Create(ctx, d)
	assert.ErrorIs(t, err, ErrMissingUserID)

	d = draft("u1")
	d.ProductType = ""
	_, err = svc.Create(ctx, d)
	assert.ErrorIs(t, err, ErrMissingProduct)

	d = draft("u1")
	d.Quantity = 0
	_, err = svc.Create(ctx, d)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	d = draft("u1")
	d.TotalAmount = -1
	_, err = svc.Create(ctx, d)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTrackingIDUnique(t *testing.T) {
	c := newClock()
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		id := NewTrackingID(c.Now())
		assert.Regexp(t, trackingPattern, id)
		_, dup := seen[id]
		assert.False(t, dup, "tracking id %s repeated", id)
		seen[id] = struct{}{}
		c.Advance(time.Millisecond)
	}
}

func TestCreateRecentDuplicateRejected(t *testing.T) {
	c := newClock()
	svc, _, _ := newTestService(c)
	ctx := context.Background()

	_, err := svc.Create(ctx, draft("u1"))
	require.NoError(t, err)

	// The first call completed, so only the recent-match query can catch this.
	_, err = svc.Create(ctx, draft("u1"))
	assert.ErrorIs(t, err, apperr.ErrDuplicateSubmission)

	// A different dedup key is unaffected.
	other := draft("u1")
	other.TotalAmount = 750
	_, err = svc.Create(ctx, other)
	assert.NoError(t, err)
}

func TestCreateSucceedsPastWindow(t *testing.T) {
	c := newClock()
	svc, _, _ := newTestService(c)
	ctx := context.Background()

	_, err := svc.Create(ctx, draft("u1"))
	require.NoError(t, err)

	c.Advance(6 * time.Minute)
	_, err = svc.Create(ctx, draft("u1"))
	assert.NoError(t, err)
}

func TestConcurrentCreateOneWins(t *testing.T) {
	c := newClock()
	svc, st, _ := newTestService(c)
	st.insertGate = make(chan struct{})
	ctx := context.Background()

	results := make(chan error, 2)
	var started sync.WaitGroup
	started.Add(1)
	go func() {
		started.Done()
		_, err := svc.Create(ctx, draft("u1"))
		results <- err
	}()
	started.Wait()

	// Wait until the first call is inside the store, holding its guard key.
	require.Eventually(t, func() bool { return svc.Guard.Len() == 1 }, time.Second, time.Millisecond)

	_, err := svc.Create(ctx, draft("u1"))
	assert.ErrorIs(t, err, apperr.ErrDuplicateSubmission)

	close(st.insertGate)
	require.NoError(t, <-results)

	// The guard key is released once the call completes.
	require.Eventually(t, func() bool { return svc.Guard.Len() == 0 }, time.Second, time.Millisecond)
}

func TestUpdateStatusOnly(t *testing.T) {
	c := newClock()
	svc, _, fd := newTestService(c)
	ctx := context.Background()

	order, err := svc.Create(ctx, draft("u1"))
	require.NoError(t, err)
	createdAt := order.CreatedAt

	c.Advance(time.Hour)
	shipped := models.StatusShipped
	updated, err := svc.Update(ctx, order.ID, lifecycle.Change{Status: &shipped})
	require.NoError(t, err)

	assert.Equal(t, models.StatusShipped, updated.Status)
	assert.Equal(t, models.PaymentPending, updated.PaymentStatus, "payment status must not move")
	assert.True(t, updated.LastUpdated.After(createdAt))

	// Immutable attributes survive any update.
	assert.Equal(t, order.UserID, updated.UserID)
	assert.Equal(t, order.ProductType, updated.ProductType)
	assert.Equal(t, order.TotalAmount, updated.TotalAmount)
	assert.Equal(t, order.TrackingID, updated.TrackingID)
	assert.Equal(t, createdAt, updated.CreatedAt)

	require.Len(t, fd.events, 2)
	assert.Equal(t, feed.EventOrderUpdated, fd.events[1].Type)
}

func TestUpdateBothFieldsAtomically(t *testing.T) {
	c := newClock()
	svc, _, _ := newTestService(c)
	ctx := context.Background()

	order, err := svc.Create(ctx, draft("u1"))
	require.NoError(t, err)

	completed := models.StatusCompleted
	paid := models.PaymentCompleted
	updated, err := svc.Update(ctx, order.ID, lifecycle.Change{Status: &completed, PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, models.PaymentCompleted, updated.PaymentStatus)
}

func TestUpdateRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(newClock())
	ctx := context.Background()

	order, err := svc.Create(ctx, draft("u1"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, order.ID, lifecycle.Change{})
	assert.ErrorIs(t, err, lifecycle.ErrEmptyChange)

	bogus := models.OrderStatus("bogus")
	_, err = svc.Update(ctx, order.ID, lifecycle.Change{Status: &bogus})
	assert.ErrorIs(t, err, lifecycle.ErrUnknownStatus)

	shipped := models.StatusShipped
	_, err = svc.Update(ctx, "no-such-id", lifecycle.Change{Status: &shipped})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _, fd := newTestService(newClock())
	ctx := context.Background()

	order, err := svc.Create(ctx, draft("u1"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, order.ID))
	_, err = svc.Get(ctx, order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, order.ID), apperr.ErrNotFound)

	require.Len(t, fd.events, 2)
	assert.Equal(t, feed.EventOrderDeleted, fd.events[1].Type)
	assert.Equal(t, order.ID, fd.events[1].OrderID)
}

func TestCheckoutScenario(t *testing.T) {
	c := newClock()
	svc, _, _ := newTestService(c)
	ctx := context.Background()

	order, err := svc.Create(ctx, OrderDraft{
		UserID: "u1", ProductType: "Labels", Quantity: 1, TotalAmount: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)

	_, err = svc.Create(ctx, OrderDraft{
		UserID: "u1", ProductType: "Labels", Quantity: 1, TotalAmount: 500,
	})
	assert.ErrorIs(t, err, apperr.ErrDuplicateSubmission)

	c.Advance(time.Minute)
	shipped := models.StatusShipped
	updated, err := svc.Update(ctx, order.ID, lifecycle.Change{Status: &shipped})
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, updated.Status)
	assert.Equal(t, models.PaymentPending, updated.PaymentStatus)
	assert.NotEqual(t, order.LastUpdated, updated.LastUpdated)
}
