package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"muvbackoffice/internal/apperr"
	"muvbackoffice/internal/dedup"
	"muvbackoffice/internal/lifecycle"
	"muvbackoffice/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, user_id, customer_name, customer_email, customer_phone,
	product_type, quantity, specifications, delivery_address, total_amount,
	tracking_id, status, payment_status, payment_method, payment_external_id,
	created_at, last_updated`

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// InsertOrder persists a new order. created_at and last_updated come back
// from the database so ordering never depends on client clocks.
func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	var method, externalID *string
	if order.PaymentDetails != nil {
		method = &order.PaymentDetails.Method
		externalID = &order.PaymentDetails.ExternalID
	}
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO orders (
			id, user_id, customer_name, customer_email, customer_phone,
			product_type, quantity, specifications, delivery_address,
			total_amount, tracking_id, status, payment_status,
			payment_method, payment_external_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, last_updated
	`,
		order.ID,
		order.UserID,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.ProductType,
		order.Quantity,
		order.Specifications,
		order.DeliveryAddress,
		order.TotalAmount,
		order.TrackingID,
		order.Status,
		order.PaymentStatus,
		method,
		externalID,
	).Scan(&order.CreatedAt, &order.LastUpdated)
	if err != nil {
		return unavailable("insert order", err)
	}
	return nil
}

// CountRecentMatches counts committed orders with the same dedup key created
// within the trailing window. The comparison runs against the server clock.
func (s *Store) CountRecentMatches(ctx context.Context, key dedup.Key, window time.Duration) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
		SELECT count(*) FROM orders
		WHERE user_id=$1 AND product_type=$2 AND total_amount=$3
		  AND created_at > now() - make_interval(secs => $4)
	`, key.UserID, key.ProductType, key.TotalAmount, window.Seconds()).Scan(&n)
	if err != nil {
		return 0, unavailable("count recent matches", err)
	}
	return n, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, unavailable("get order", err)
	}
	return order, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (s *Store) ListRecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
}

func (s *Store) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]*models.Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE status=$1 ORDER BY created_at DESC`, status)
}

// UpdateOrder applies the change in one write. Only status, payment fields
// and last_updated are reachable here; the immutable columns have no SET.
func (s *Store) UpdateOrder(ctx context.Context, id string, change lifecycle.Change) (*models.Order, error) {
	sets := []string{"last_updated=now()"}
	args := []any{id}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if change.Status != nil {
		sets = append(sets, "status="+arg(*change.Status))
	}
	if change.PaymentStatus != nil {
		sets = append(sets, "payment_status="+arg(*change.PaymentStatus))
	}
	if change.PaymentDetails != nil {
		sets = append(sets, "payment_method="+arg(change.PaymentDetails.Method))
		sets = append(sets, "payment_external_id="+arg(change.PaymentDetails.ExternalID))
	}

	row := s.Pool.QueryRow(ctx,
		`UPDATE orders SET `+strings.Join(sets, ", ")+` WHERE id=$1 RETURNING `+orderColumns,
		args...,
	)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, unavailable("update order", err)
	}
	return order, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.Pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return unavailable("delete order", err)
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	rows, err := s.Pool.Query(ctx, `SELECT email, name FROM admins ORDER BY created_at`)
	if err != nil {
		return nil, unavailable("list admins", err)
	}
	defer rows.Close()

	var admins []models.Admin
	for rows.Next() {
		var a models.Admin
		if err := rows.Scan(&a.Email, &a.Name); err != nil {
			return nil, unavailable("scan admin", err)
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list admins", err)
	}
	return admins, nil
}

func (s *Store) InsertAdmin(ctx context.Context, admin models.Admin) error {
	res, err := s.Pool.Exec(ctx, `
		INSERT INTO admins (email, name) VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`, admin.Email, admin.Name)
	if err != nil {
		return unavailable("insert admin", err)
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrAlreadyExists
	}
	return nil
}

func (s *Store) DeleteAdmin(ctx context.Context, email string) error {
	res, err := s.Pool.Exec(ctx, `DELETE FROM admins WHERE email=$1`, email)
	if err != nil {
		return unavailable("delete admin", err)
	}
	if res.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list orders", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, unavailable("scan order", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list orders", err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	var method, externalID sql.NullString

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.ProductType,
		&order.Quantity,
		&order.Specifications,
		&order.DeliveryAddress,
		&order.TotalAmount,
		&order.TrackingID,
		&order.Status,
		&order.PaymentStatus,
		&method,
		&externalID,
		&order.CreatedAt,
		&order.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	if method.Valid || externalID.Valid {
		order.PaymentDetails = &models.PaymentDetails{
			Method:     method.String,
			ExternalID: externalID.String,
		}
	}
	return &order, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", apperr.ErrStoreUnavailable, op, err)
}
