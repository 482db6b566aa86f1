// Package sqlite stores the saga log in a local SQLite file using the pure-Go
// modernc driver.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/draftea/food-ordering/order-service/sagalog"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS saga_logs (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id       TEXT NOT NULL,
    saga           TEXT NOT NULL,
    status         TEXT NOT NULL,
    step           TEXT NOT NULL DEFAULT '',
    order_status   TEXT NOT NULL DEFAULT '',
    error_messages TEXT NOT NULL DEFAULT '[]',
    trace_id       TEXT NOT NULL DEFAULT '',
    span_id        TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_saga_logs_order_id ON saga_logs(order_id, id);
CREATE INDEX IF NOT EXISTS idx_saga_logs_trace_id ON saga_logs(trace_id);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// Repository implements sagalog.Repository on SQLite
type Repository struct {
	db *sqlx.DB
}

type sqliteEntry struct {
	ID            int64  `db:"id"`
	OrderID       string `db:"order_id"`
	Saga          string `db:"saga"`
	Status        string `db:"status"`
	Step          string `db:"step"`
	OrderStatus   string `db:"order_status"`
	ErrorMessages string `db:"error_messages"`
	TraceID       string `db:"trace_id"`
	SpanID        string `db:"span_id"`
	CreatedAt     string `db:"created_at"`
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open saga log %q", path)
	}

	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to apply saga log schema")
	}

	return &Repository{db: db}, nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends an entry and sets its ID
func (r *Repository) Save(ctx context.Context, entry *sagalog.Entry) error {
	query := `
		INSERT INTO saga_logs (
			order_id, saga, status, step, order_status,
			error_messages, trace_id, span_id, created_at
		) VALUES (
			:order_id, :saga, :status, :step, :order_status,
			:error_messages, :trace_id, :span_id, :created_at
		)`

	result, err := r.db.NamedExecContext(ctx, query, toSQLite(entry))
	if err != nil {
		return errors.Wrapf(err, "failed to save saga log for order %s", entry.OrderID)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}

	return nil
}

// FindByOrderID returns every entry of an order in insertion order
func (r *Repository) FindByOrderID(ctx context.Context, orderID string) ([]*sagalog.Entry, error) {
	query := `
		SELECT id, order_id, saga, status, step, order_status,
			   error_messages, trace_id, span_id, created_at
		FROM saga_logs
		WHERE order_id = ?
		ORDER BY id`

	var rows []sqliteEntry
	if err := r.db.SelectContext(ctx, &rows, query, orderID); err != nil {
		return nil, errors.Wrapf(err, "failed to find saga log for order %s", orderID)
	}

	entries := make([]*sagalog.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func toSQLite(entry *sagalog.Entry) sqliteEntry {
	return sqliteEntry{
		OrderID:       entry.OrderID,
		Saga:          entry.Saga,
		Status:        string(entry.Status),
		Step:          entry.Step,
		OrderStatus:   entry.OrderStatus,
		ErrorMessages: entry.ErrorMessages,
		TraceID:       entry.TraceID,
		SpanID:        entry.SpanID,
		CreatedAt:     entry.CreatedAt.UTC().Format(timeLayout),
	}
}

func toDomain(row sqliteEntry) (*sagalog.Entry, error) {
	createdAt, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid saga log timestamp %q", row.CreatedAt)
	}

	return &sagalog.Entry{
		ID:            row.ID,
		OrderID:       row.OrderID,
		Saga:          row.Saga,
		Status:        sagalog.Status(row.Status),
		Step:          row.Step,
		OrderStatus:   row.OrderStatus,
		ErrorMessages: row.ErrorMessages,
		TraceID:       row.TraceID,
		SpanID:        row.SpanID,
		CreatedAt:     createdAt,
	}, nil
}
