package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/draftea/food-ordering/order-service/application"
	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/infrastructure"
	"github.com/draftea/food-ordering/order-service/mocks"
	"github.com/draftea/food-ordering/shared/events"
	sharedinfra "github.com/draftea/food-ordering/shared/infrastructure"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/draftea/food-ordering/shared/saga"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testCustomerID   = "d215b5f8-0249-4dc5-89a3-51fd148cfb41"
	testRestaurantID = "d215b5f8-0249-4dc5-89a3-51fd148cfb45"
	testProductID    = "d215b5f8-0249-4dc5-89a3-51fd148cfb48"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []*events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...*events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, evts...)
	return nil
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

// testApp wires the use cases over in-memory storage
type testApp struct {
	repo      domain.OrderRepository
	publisher *recordingPublisher
	relay     *sharedinfra.OutboxRelay
	router    *chi.Mux
	events    *saga.EventRouter
}

// published relays the outbox and returns every topic delivered so far
func (a *testApp) published(t *testing.T) []events.Topic {
	t.Helper()
	require.NotNil(t, a.relay, "repository has no outbox")
	for {
		n, err := a.relay.RelayBatch(context.Background())
		require.NoError(t, err)
		if n == 0 {
			return a.publisher.topics()
		}
	}
}

func newTestApp(t *testing.T, repo domain.OrderRepository) *testApp {
	t.Helper()

	if repo == nil {
		repo = infrastructure.NewMemoryOrderRepository()
	}

	restaurants := mocks.NewMockRestaurantRepository(t)
	restaurants.EXPECT().FindRestaurantInformation(mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Restaurant{
			ID:     testRestaurantID,
			Active: true,
			Products: []domain.Product{
				{ID: testProductID, Name: "pizza", Price: models.MustMoney("12.50"), Available: true},
			},
		}, nil).Maybe()

	publisher := &recordingPublisher{}
	domainService := domain.NewOrderDomainService()
	locks := application.NewOrderLocks()

	orderHandlers := NewOrderHandlers(
		application.NewCreateOrder(repo, restaurants, domainService, nil),
		application.NewTrackOrder(repo),
		application.NewCancelOrder(repo, domainService, nil, locks),
	)
	eventHandlers := NewOrderEventHandlers(
		application.NewProcessPaymentResponse(application.NewOrderPaymentSaga(repo, domainService, locks), nil),
		application.NewProcessApprovalResponse(application.NewOrderApprovalSaga(repo, domainService, locks), nil),
	)

	var relay *sharedinfra.OutboxRelay
	if outbox, ok := repo.(sharedinfra.OutboxStore); ok {
		relay = sharedinfra.NewOutboxRelay(outbox, publisher, time.Second, 10)
	}

	router := chi.NewRouter()
	orderHandlers.RegisterRoutes(router)

	eventRouter := saga.NewEventRouter()
	eventHandlers.RegisterRoutes(eventRouter)

	return &testApp{
		repo:      repo,
		publisher: publisher,
		relay:     relay,
		router:    router,
		events:    eventRouter,
	}
}

const createOrderBody = `{
	"customer_id": "` + testCustomerID + `",
	"restaurant_id": "` + testRestaurantID + `",
	"price": "25.00",
	"items": [
		{"product_id": "` + testProductID + `", "quantity": 2, "price": "12.50", "sub_total": "25.00"}
	],
	"address": {"street": "street_1", "postal_code": "1000AB", "city": "Amsterdam"}
}`
