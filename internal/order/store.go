package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("order not found")

// Store persists orders in Postgres. Items and address are stored as JSONB
// snapshots so that invoice amounts keep reflecting order-time values.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore constructs an order store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Create inserts a new order. A missing id or creation time is filled in.
func (s *Store) Create(ctx context.Context, o Order) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, errors.New("order store not configured")
	}
	if strings.TrimSpace(o.ID) == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	id, err := uuid.Parse(o.ID)
	if err != nil {
		return Order{}, fmt.Errorf("parse order id: %w", err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, fmt.Errorf("marshal items: %w", err)
	}
	var address []byte
	if o.Address != nil {
		address, err = json.Marshal(o.Address)
		if err != nil {
			return Order{}, fmt.Errorf("marshal address: %w", err)
		}
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO orders (id, created_at, transaction_id, is_paid, payment_type, amount, address, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, o.CreatedAt, nullable(o.TransactionID), o.IsPaid, nullable(o.PaymentType), o.Amount, address, items,
	)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// Get loads a single order by id.
func (s *Store) Get(ctx context.Context, orderID string) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, errors.New("order store not configured")
	}
	id, err := uuid.Parse(orderID)
	if err != nil {
		return Order{}, ErrNotFound
	}
	row := s.Pool.QueryRow(ctx, `
		SELECT id, created_at, transaction_id, is_paid, payment_type, amount, address, items
		FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

// List returns orders newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Order, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("order store not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, created_at, transaction_id, is_paid, payment_type, amount, address, items
		FROM orders ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Count returns the total number of stored orders.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.Pool == nil {
		return 0, errors.New("order store not configured")
	}
	var total int64
	err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		id            uuid.UUID
		createdAt     time.Time
		transactionID *string
		paymentType   *string
		address       []byte
		items         []byte
		o             Order
	)
	if err := row.Scan(&id, &createdAt, &transactionID, &o.IsPaid, &paymentType, &o.Amount, &address, &items); err != nil {
		return Order{}, err
	}
	o.ID = id.String()
	o.CreatedAt = createdAt
	if transactionID != nil {
		o.TransactionID = *transactionID
	}
	if paymentType != nil {
		o.PaymentType = *paymentType
	}
	if len(address) > 0 {
		var a Address
		if err := json.Unmarshal(address, &a); err != nil {
			return Order{}, fmt.Errorf("unmarshal address: %w", err)
		}
		o.Address = &a
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return Order{}, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	if o.Items == nil {
		o.Items = []Item{}
	}
	return o, nil
}

func nullable(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
