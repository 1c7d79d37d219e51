package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/bankdesk/bankdesk/internal/domain/errors"
	"github.com/bankdesk/bankdesk/internal/domain/model"
	"github.com/bankdesk/bankdesk/internal/domain/repository"
)

// pgxPool is the subset of pgxpool.Pool the storage relies on; pgxmock
// satisfies it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type photoRepository struct {
	storage *Storage
}

type channelRepository struct {
	storage *Storage
}

type queueRepository struct {
	storage *Storage
}

type cooperationRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pgPool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pgPool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pgPool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Photos() repository.PhotoRepository {
	return &photoRepository{storage: s}
}

func (s *Storage) Channels() repository.ChannelRepository {
	return &channelRepository{storage: s}
}

func (s *Storage) Queue() repository.QueueRepository {
	return &queueRepository{storage: s}
}

func (s *Storage) Cooperations() repository.CooperationRepository {
	return &cooperationRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            customer_id BIGINT NOT NULL,
            display_name TEXT NOT NULL DEFAULT '',
            bank TEXT NOT NULL,
            operation TEXT NOT NULL,
            stage INT NOT NULL DEFAULT 0,
            status TEXT NOT NULL,
            channel_id BIGINT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS order_photos (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            stage INT NOT NULL,
            media_ref TEXT NOT NULL,
            confirmed BOOLEAN NOT NULL DEFAULT FALSE,
            UNIQUE (order_id, stage, media_ref)
        )`,
		`CREATE TABLE IF NOT EXISTS cooperation_requests (
            id BIGSERIAL PRIMARY KEY,
            customer_id BIGINT NOT NULL,
            display_name TEXT NOT NULL DEFAULT '',
            body TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS operator_channels (
            id BIGSERIAL PRIMARY KEY,
            chat_id BIGINT UNIQUE NOT NULL,
            name TEXT NOT NULL,
            busy BOOLEAN NOT NULL DEFAULT FALSE
        )`,
		`CREATE TABLE IF NOT EXISTS queue (
            id BIGSERIAL PRIMARY KEY,
            customer_id BIGINT NOT NULL,
            display_name TEXT NOT NULL DEFAULT '',
            bank TEXT NOT NULL,
            operation TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_order_photos_order ON order_photos(order_id, stage)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, customer_id, display_name, bank, operation, stage, status, channel_id, created_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.DisplayName, &o.Bank, &o.Operation, &o.Stage, &o.Status, &o.ChannelID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, customerID int64, displayName, bank string, operation model.OperationKind, status string) (*model.Order, error) {
	const query = `INSERT INTO orders (customer_id, display_name, bank, operation, stage, status)
                   VALUES ($1, $2, $3, $4, 0, $5)
                   RETURNING id, created_at`
	var o model.Order
	err := r.storage.pool.QueryRow(ctx, query, customerID, displayName, bank, operation, status).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	o.CustomerID = customerID
	o.DisplayName = displayName
	o.Bank = bank
	o.Operation = operation
	o.Status = status
	return &o, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) LatestByCustomer(ctx context.Context, customerID int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id=$1 ORDER BY id DESC LIMIT 1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, customerID))
}

func (r *orderRepository) LatestQueuedByCustomer(ctx context.Context, customerID int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id=$1 AND status=$2 ORDER BY id DESC LIMIT 1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, customerID, model.StatusQueued))
}

func (r *orderRepository) SetStage(ctx context.Context, orderID int64, stage int, status string) error {
	const query = `UPDATE orders SET stage=$1, status=$2 WHERE id=$3`
	if _, err := r.storage.pool.Exec(ctx, query, stage, status, orderID); err != nil {
		return fmt.Errorf("update order stage: %w", err)
	}
	return nil
}

func (r *orderRepository) SetStatus(ctx context.Context, orderID int64, status string) error {
	const query = `UPDATE orders SET status=$1 WHERE id=$2`
	if _, err := r.storage.pool.Exec(ctx, query, status, orderID); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (r *orderRepository) BindChannel(ctx context.Context, orderID, channelChatID int64) error {
	const query = `UPDATE orders SET channel_id=$1 WHERE id=$2`
	if _, err := r.storage.pool.Exec(ctx, query, channelChatID, orderID); err != nil {
		return fmt.Errorf("bind order channel: %w", err)
	}
	return nil
}

func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY id DESC LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *orderRepository) ListOpen(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status NOT IN ($1, $2, $3) ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, model.StatusCompleted, model.StatusTerminated, model.StatusNoScript)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	var result []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.DisplayName, &o.Bank, &o.Operation, &o.Stage, &o.Status, &o.ChannelID, &o.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) Counts(ctx context.Context) (repository.OrderCounts, error) {
	const query = `SELECT COUNT(*),
                          COUNT(*) FILTER (WHERE status IN ($1, $2, $3)),
                          COUNT(*) FILTER (WHERE status NOT IN ($1, $2, $3))
                   FROM orders`
	var counts repository.OrderCounts
	err := r.storage.pool.QueryRow(ctx, query, model.StatusCompleted, model.StatusTerminated, model.StatusNoScript).
		Scan(&counts.Total, &counts.Finished, &counts.Open)
	if err != nil {
		return repository.OrderCounts{}, fmt.Errorf("count orders: %w", err)
	}
	return counts, nil
}

// --- PhotoRepository implementation ---

func (r *photoRepository) Add(ctx context.Context, orderID int64, stage int, mediaRef string) (*model.PhotoSubmission, bool, error) {
	const query = `INSERT INTO order_photos (order_id, stage, media_ref)
                   VALUES ($1, $2, $3)
                   ON CONFLICT (order_id, stage, media_ref) DO NOTHING
                   RETURNING id`
	var p model.PhotoSubmission
	err := r.storage.pool.QueryRow(ctx, query, orderID, stage, mediaRef).Scan(&p.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Duplicate delivery of the same media for the same stage.
			existing, err := r.getByTriple(ctx, orderID, stage, mediaRef)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("insert photo: %w", err)
	}
	p.OrderID = orderID
	p.Stage = stage
	p.MediaRef = mediaRef
	return &p, true, nil
}

func (r *photoRepository) getByTriple(ctx context.Context, orderID int64, stage int, mediaRef string) (*model.PhotoSubmission, error) {
	const query = `SELECT id, order_id, stage, media_ref, confirmed FROM order_photos
                   WHERE order_id=$1 AND stage=$2 AND media_ref=$3`
	var p model.PhotoSubmission
	err := r.storage.pool.QueryRow(ctx, query, orderID, stage, mediaRef).Scan(&p.ID, &p.OrderID, &p.Stage, &p.MediaRef, &p.Confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *photoRepository) GetByID(ctx context.Context, id int64) (*model.PhotoSubmission, error) {
	const query = `SELECT id, order_id, stage, media_ref, confirmed FROM order_photos WHERE id=$1`
	var p model.PhotoSubmission
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.OrderID, &p.Stage, &p.MediaRef, &p.Confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *photoRepository) Confirm(ctx context.Context, id int64) (*model.PhotoSubmission, error) {
	const query = `UPDATE order_photos SET confirmed=TRUE WHERE id=$1
                   RETURNING id, order_id, stage, media_ref, confirmed`
	var p model.PhotoSubmission
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.OrderID, &p.Stage, &p.MediaRef, &p.Confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("confirm photo: %w", err)
	}
	return &p, nil
}

func (r *photoRepository) CountsForStage(ctx context.Context, orderID int64, stage int) (repository.StageCounts, error) {
	const query = `SELECT COUNT(*) FILTER (WHERE confirmed), COUNT(*)
                   FROM order_photos WHERE order_id=$1 AND stage=$2`
	var counts repository.StageCounts
	if err := r.storage.pool.QueryRow(ctx, query, orderID, stage).Scan(&counts.Confirmed, &counts.Total); err != nil {
		return repository.StageCounts{}, fmt.Errorf("count photos: %w", err)
	}
	return counts, nil
}

func (r *photoRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.PhotoSubmission, error) {
	const query = `SELECT id, order_id, stage, media_ref, confirmed FROM order_photos
                   WHERE order_id=$1 ORDER BY stage, id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PhotoSubmission
	for rows.Next() {
		var p model.PhotoSubmission
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Stage, &p.MediaRef, &p.Confirmed); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- ChannelRepository implementation ---

func (r *channelRepository) Add(ctx context.Context, chatID int64, name string) error {
	const query = `INSERT INTO operator_channels (chat_id, name) VALUES ($1, $2)
                   ON CONFLICT (chat_id) DO NOTHING`
	if _, err := r.storage.pool.Exec(ctx, query, chatID, name); err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

func (r *channelRepository) Remove(ctx context.Context, chatID int64) error {
	const query = `DELETE FROM operator_channels WHERE chat_id=$1`
	if _, err := r.storage.pool.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

func (r *channelRepository) List(ctx context.Context) ([]model.OperatorChannel, error) {
	const query = `SELECT id, chat_id, name, busy FROM operator_channels ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OperatorChannel
	for rows.Next() {
		var c model.OperatorChannel
		if err := rows.Scan(&c.ID, &c.ChatID, &c.Name, &c.Busy); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *channelRepository) ClaimFree(ctx context.Context) (*model.OperatorChannel, error) {
	var claimed *model.OperatorChannel
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const selectQuery = `SELECT id, chat_id, name FROM operator_channels
                             WHERE busy=FALSE ORDER BY id LIMIT 1
                             FOR UPDATE SKIP LOCKED`
		var c model.OperatorChannel
		err := tx.QueryRow(ctx, selectQuery).Scan(&c.ID, &c.ChatID, &c.Name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNoFreeChannel
			}
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE operator_channels SET busy=TRUE WHERE id=$1`, c.ID); err != nil {
			return err
		}
		c.Busy = true
		claimed = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *channelRepository) Release(ctx context.Context, chatID int64) error {
	const query = `UPDATE operator_channels SET busy=FALSE WHERE chat_id=$1`
	if _, err := r.storage.pool.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("release channel: %w", err)
	}
	return nil
}

// --- QueueRepository implementation ---

func (r *queueRepository) Enqueue(ctx context.Context, customerID int64, displayName, bank string, operation model.OperationKind) (*model.QueueEntry, error) {
	const query = `INSERT INTO queue (customer_id, display_name, bank, operation)
                   VALUES ($1, $2, $3, $4)
                   RETURNING id, created_at`
	var e model.QueueEntry
	err := r.storage.pool.QueryRow(ctx, query, customerID, displayName, bank, operation).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	e.CustomerID = customerID
	e.DisplayName = displayName
	e.Bank = bank
	e.Operation = operation
	return &e, nil
}

func (r *queueRepository) PopOldest(ctx context.Context) (*model.QueueEntry, error) {
	var popped *model.QueueEntry
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const selectQuery = `SELECT id, customer_id, display_name, bank, operation, created_at
                             FROM queue ORDER BY id LIMIT 1
                             FOR UPDATE SKIP LOCKED`
		var e model.QueueEntry
		err := tx.QueryRow(ctx, selectQuery).Scan(&e.ID, &e.CustomerID, &e.DisplayName, &e.Bank, &e.Operation, &e.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrQueueEmpty
			}
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM queue WHERE id=$1`, e.ID); err != nil {
			return err
		}
		popped = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return popped, nil
}

func (r *queueRepository) RemoveByCustomer(ctx context.Context, customerID int64) error {
	const query = `DELETE FROM queue WHERE customer_id=$1`
	if _, err := r.storage.pool.Exec(ctx, query, customerID); err != nil {
		return fmt.Errorf("remove queue entries: %w", err)
	}
	return nil
}

func (r *queueRepository) List(ctx context.Context) ([]model.QueueEntry, error) {
	const query = `SELECT id, customer_id, display_name, bank, operation, created_at FROM queue ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.QueueEntry
	for rows.Next() {
		var e model.QueueEntry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.DisplayName, &e.Bank, &e.Operation, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- CooperationRepository implementation ---

func (r *cooperationRepository) Create(ctx context.Context, customerID int64, displayName, body string) (*model.CooperationRequest, error) {
	const query = `INSERT INTO cooperation_requests (customer_id, display_name, body)
                   VALUES ($1, $2, $3)
                   RETURNING id, created_at`
	var c model.CooperationRequest
	err := r.storage.pool.QueryRow(ctx, query, customerID, displayName, body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert cooperation request: %w", err)
	}
	c.CustomerID = customerID
	c.DisplayName = displayName
	c.Body = body
	return &c, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
