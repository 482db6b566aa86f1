package infrastructure

import (
	"context"
	"log/slog"
	"time"

	"github.com/draftea/food-ordering/shared/events"
	"github.com/draftea/food-ordering/shared/telemetry"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	OutboxStatusPending   = "PENDING"
	OutboxStatusPublished = "PUBLISHED"
)

// OutboxStore holds events written together with the state change that
// produced them. RelayPending hands up to limit pending events to publish and
// marks them published only when publish succeeds.
type OutboxStore interface {
	RelayPending(ctx context.Context, limit int, publish PublishFunc) (int, error)
}

// PublishFunc delivers a batch of events, usually events.Publisher.Publish
type PublishFunc func(ctx context.Context, evts ...*events.Event) error

var _ OutboxStore = (*PostgresOutbox)(nil)

// outboxRecord represents an outbox row
type outboxRecord struct {
	ID          string     `db:"id"`
	AggregateID string     `db:"aggregate_id"`
	Topic       string     `db:"topic"`
	Body        []byte     `db:"body"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	PublishedAt *time.Time `db:"published_at"`
}

// InsertOutboxEvents stores evts as pending outbox rows inside tx, so they
// commit or roll back with the caller's own writes
func InsertOutboxEvents(ctx context.Context, tx sqlx.ExtContext, evts ...*events.Event) error {
	query := `
		INSERT INTO outbox (id, aggregate_id, topic, body, status, created_at)
		VALUES (:id, :aggregate_id, :topic, :body, :status, :created_at)
		ON CONFLICT (id) DO NOTHING`

	for _, event := range evts {
		record, err := toOutboxRecord(event)
		if err != nil {
			return err
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, query, record); err != nil {
			return errors.Wrap(err, "failed to insert outbox event")
		}
	}

	return nil
}

func toOutboxRecord(event *events.Event) (*outboxRecord, error) {
	body, err := encodeMessage(event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode outbox event")
	}

	return &outboxRecord{
		ID:          event.ID.String(),
		AggregateID: event.AggregateID.String(),
		Topic:       event.Topic.String(),
		Body:        body,
		Status:      OutboxStatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// PostgresOutbox reads the outbox table written by InsertOutboxEvents
type PostgresOutbox struct {
	db *sqlx.DB
}

// NewPostgresOutbox creates a new PostgresOutbox
func NewPostgresOutbox(db *sqlx.DB) *PostgresOutbox {
	return &PostgresOutbox{db: db}
}

// RelayPending publishes one batch of pending rows and marks them published.
// The rows stay locked until the transaction ends so concurrent relays
// skip them.
func (o *PostgresOutbox) RelayPending(ctx context.Context, limit int, publish PublishFunc) (int, error) {
	tx, err := o.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var records []outboxRecord
	err = tx.SelectContext(ctx, &records, `
		SELECT id, aggregate_id, topic, body, status, created_at, published_at
		FROM outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, OutboxStatusPending, limit)
	if err != nil {
		return 0, errors.Wrap(err, "failed to fetch outbox events")
	}

	if len(records) == 0 {
		return 0, nil
	}

	evts := make([]*events.Event, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, record := range records {
		event, err := decodeMessage(record.Body)
		if err != nil {
			// marked with the batch so it is not fetched every tick
			slog.ErrorContext(ctx, "dropping undecodable outbox event", "outbox_id", record.ID, "error", err)
			ids = append(ids, record.ID)
			continue
		}
		evts = append(evts, event)
		ids = append(ids, record.ID)
	}

	if len(evts) > 0 {
		if err := publish(ctx, evts...); err != nil {
			return 0, errors.Wrap(err, "failed to publish outbox events")
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE outbox SET status = $1, published_at = $2
		WHERE id = ANY($3)`, OutboxStatusPublished, time.Now().UTC(), pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark outbox events as published")
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit outbox batch")
	}

	return len(evts), nil
}

// OutboxRelay periodically moves pending outbox events to a publisher.
// Delivery is at least once: a crash between publish and mark sends the
// batch again.
type OutboxRelay struct {
	store     OutboxStore
	publisher events.Publisher
	interval  time.Duration
	batchSize int
}

// NewOutboxRelay creates a new OutboxRelay
func NewOutboxRelay(store OutboxStore, publisher events.Publisher, interval time.Duration, batchSize int) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 10
	}

	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start relays batches until ctx is cancelled
func (r *OutboxRelay) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := r.RelayBatch(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "failed to relay outbox batch", "error", err)
				continue
			}
			if n > 0 {
				slog.DebugContext(ctx, "relayed outbox batch", "events", n)
			}
		}
	}
}

// RelayBatch publishes one batch of pending events
func (r *OutboxRelay) RelayBatch(ctx context.Context) (int, error) {
	return r.store.RelayPending(ctx, r.batchSize, r.publish)
}

func (r *OutboxRelay) publish(ctx context.Context, evts ...*events.Event) error {
	if err := r.publisher.Publish(ctx, evts...); err != nil {
		return err
	}

	for _, e := range evts {
		telemetry.RecordCounter(ctx, "events_published_total", "Total events published", 1,
			attribute.String("topic", e.Topic.String()),
		)
	}
	return nil
}
