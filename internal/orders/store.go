package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prontoville/crust/internal/cart"
)

// Order is a confirmed cart, persisted with the customer's contact details.
// The phone number doubles as the durable identity that links chat sessions.
type Order struct {
	ID            string      `json:"id"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Lines         []cart.Line `json:"lines"`
	Total         float64     `json:"total"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}

type Store interface {
	SaveOrder(ctx context.Context, order Order) error
	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}

// NewOrder fills in the generated fields of an order.
func NewOrder(name, phone string, lines []cart.Line) Order {
	return Order{
		ID:            uuid.NewString(),
		CustomerName:  name,
		CustomerPhone: phone,
		Lines:         lines,
		Total:         cart.Total(lines),
		Status:        "pending",
		CreatedAt:     time.Now().UTC(),
	}
}

// InMemoryStore keeps confirmed orders in process, for local/dev use.
type InMemoryStore struct {
	mu     sync.RWMutex
	orders []Order
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SaveOrder(_ context.Context, order Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
	return nil
}

func (s *InMemoryStore) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *InMemoryStore) Close() error { return nil }

// PostgresStore persists confirmed orders in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initOrderSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initOrderSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmt := `CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		items_json JSONB NOT NULL,
		total_amount DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init order schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveOrder(ctx context.Context, order Order) error {
	items, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO orders (id, customer_name, customer_phone, items_json, total_amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID, order.CustomerName, order.CustomerPhone, items, order.Total, order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
