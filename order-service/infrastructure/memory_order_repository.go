package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/shared/events"
	sharedinfra "github.com/draftea/food-ordering/shared/infrastructure"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/pkg/errors"
)

var _ sharedinfra.OutboxStore = (*MemoryOrderRepository)(nil)

// MemoryOrderRepository implements OrderRepository in process memory. It is
// used when storage is "memory" and in tests, with the same version checks as
// the Postgres repository. Saved events wait in an in-memory outbox until
// RelayPending delivers them.
type MemoryOrderRepository struct {
	mu         sync.RWMutex
	orders     map[models.ID]*domain.Order
	byTracking map[models.ID]models.ID
	outbox     []*events.Event

	// one relay at a time, pending events are removed from the front
	relayMu sync.Mutex
}

// NewMemoryOrderRepository creates an empty repository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:     make(map[models.ID]*domain.Order),
		byTracking: make(map[models.ID]models.ID),
	}
}

// Save inserts a first-version order or updates a loaded one, queueing its
// events in the same critical section
func (r *MemoryOrderRepository) Save(ctx context.Context, order *domain.Order, orderEvents ...domain.OrderEvent) error {
	if order.ID.IsEmpty() {
		return errors.New("cannot save an order without ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.orders[order.ID]
	if order.Version.Value <= 1 {
		if exists {
			return errors.Wrapf(domain.ErrConcurrencyConflict, "order %s already exists", order.ID)
		}
	} else if !exists || stored.Version.Value != order.Version.Previous().Value {
		return errors.Wrapf(domain.ErrConcurrencyConflict, "order %s version %d", order.ID, order.Version.Value)
	}

	r.orders[order.ID] = order.Clone()
	r.byTracking[order.TrackingID] = order.ID
	for _, e := range orderEvents {
		r.outbox = append(r.outbox, e.Envelope())
	}
	return nil
}

// FindByID returns a copy of the stored order
func (r *MemoryOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return order.Clone(), nil
}

// FindByTrackingID returns a copy of the stored order
func (r *MemoryOrderRepository) FindByTrackingID(ctx context.Context, trackingID models.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTracking[trackingID]
	if !ok {
		return nil, nil
	}
	return r.orders[id].Clone(), nil
}

// PendingEvents returns the events not yet relayed, oldest first
func (r *MemoryOrderRepository) PendingEvents() []*events.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*events.Event(nil), r.outbox...)
}

// RelayPending publishes up to limit pending events and drops them from the
// outbox once publish succeeds
func (r *MemoryOrderRepository) RelayPending(ctx context.Context, limit int, publish sharedinfra.PublishFunc) (int, error) {
	r.relayMu.Lock()
	defer r.relayMu.Unlock()

	r.mu.RLock()
	n := len(r.outbox)
	if limit > 0 && n > limit {
		n = limit
	}
	batch := append([]*events.Event(nil), r.outbox[:n]...)
	r.mu.RUnlock()

	if n == 0 {
		return 0, nil
	}

	if err := publish(ctx, batch...); err != nil {
		return 0, errors.Wrap(err, "failed to publish outbox events")
	}

	r.mu.Lock()
	r.outbox = append([]*events.Event(nil), r.outbox[n:]...)
	r.mu.Unlock()

	return n, nil
}
