package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/infrastructure"
	"github.com/draftea/food-ordering/shared/events"
	sharedinfra "github.com/draftea/food-ordering/shared/infrastructure"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event in order. While failures is
// positive each Publish call fails and decrements it.
type recordingPublisher struct {
	mu        sync.Mutex
	published []*events.Event
	failures  int
}

func (p *recordingPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, evts...)
	return nil
}

func (p *recordingPublisher) failNext(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = n
}

func (p *recordingPublisher) topics() []events.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]events.Topic, 0, len(p.published))
	for _, e := range p.published {
		topics = append(topics, e.Topic)
	}
	return topics
}

func (p *recordingPublisher) count(topic events.Topic) int {
	n := 0
	for _, t := range p.topics() {
		if t == topic {
			n++
		}
	}
	return n
}

// drainOutbox relays pending events until the outbox is empty or a batch fails
func drainOutbox(ctx context.Context, relay *sharedinfra.OutboxRelay) error {
	for {
		n, err := relay.RelayBatch(ctx)
		if err != nil || n == 0 {
			return err
		}
	}
}

func newTestRelay(repo *infrastructure.MemoryOrderRepository, publisher events.Publisher) *sharedinfra.OutboxRelay {
	return sharedinfra.NewOutboxRelay(repo, publisher, time.Second, 10)
}

// storeOrder saves an order in the given status, as if it had been walked there
func storeOrder(t *testing.T, repo *infrastructure.MemoryOrderRepository, status domain.OrderStatus) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:              models.GenerateUUID(),
		TrackingID:      models.GenerateUUID(),
		CustomerID:      testCustomerID,
		RestaurantID:    testRestaurantID,
		Price:           models.MustMoney("50.00"),
		Status:          status,
		FailureMessages: []string{},
		Timestamps:      models.NewTimestamps(),
		Version:         models.NewVersion(),
	}
	require.NoError(t, repo.Save(context.Background(), order))
	return order
}

func findOrder(t *testing.T, repo *infrastructure.MemoryOrderRepository, id models.ID) *domain.Order {
	t.Helper()
	order, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}
