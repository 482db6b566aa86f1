package application

import (
	"context"
	"sync"
	"testing"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/infrastructure"
	"github.com/draftea/food-ordering/order-service/mocks"
	"github.com/draftea/food-ordering/order-service/sagalog"
	"github.com/draftea/food-ordering/order-service/sagalog/sqlite"
	"github.com/draftea/food-ordering/shared/events"
	sharedinfra "github.com/draftea/food-ordering/shared/infrastructure"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderService struct {
	repo             *infrastructure.MemoryOrderRepository
	publisher        *recordingPublisher
	relay            *sharedinfra.OutboxRelay
	sagaLog          *sqlite.Repository
	createOrder      *CreateOrder
	trackOrder       *TrackOrder
	cancelOrder      *CancelOrder
	paymentResponse  *ProcessPaymentResponse
	approvalResponse *ProcessApprovalResponse
}

func newOrderService(t *testing.T) *orderService {
	t.Helper()

	sagaLog, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sagaLog.Close() })

	restaurants := mocks.NewMockRestaurantRepository(t)
	restaurants.EXPECT().FindRestaurantInformation(mock.Anything, mock.Anything, mock.Anything).
		Return(newTestRestaurant(true), nil).Maybe()

	repo := infrastructure.NewMemoryOrderRepository()
	publisher := &recordingPublisher{}
	domainService := domain.NewOrderDomainService()
	locks := NewOrderLocks()

	return &orderService{
		repo:        repo,
		publisher:   publisher,
		relay:       newTestRelay(repo, publisher),
		sagaLog:     sagaLog,
		createOrder: NewCreateOrder(repo, restaurants, domainService, sagaLog),
		trackOrder:  NewTrackOrder(repo),
		cancelOrder: NewCancelOrder(repo, domainService, sagaLog, locks),
		paymentResponse: NewProcessPaymentResponse(
			NewOrderPaymentSaga(repo, domainService, locks), sagaLog),
		approvalResponse: NewProcessApprovalResponse(
			NewOrderApprovalSaga(repo, domainService, locks), sagaLog),
	}
}

// published relays whatever is pending and returns every topic delivered so far
func (s *orderService) published(t *testing.T) []events.Topic {
	t.Helper()
	require.NoError(t, drainOutbox(context.Background(), s.relay))
	return s.publisher.topics()
}

func (s *orderService) publishedCount(t *testing.T, topic events.Topic) int {
	t.Helper()
	require.NoError(t, drainOutbox(context.Background(), s.relay))
	return s.publisher.count(topic)
}

func (s *orderService) create(t *testing.T) *domain.Order {
	t.Helper()
	ctx := context.Background()

	created, err := s.createOrder.Execute(ctx, newCreateOrderCommand())
	require.NoError(t, err)

	order, err := s.repo.FindByTrackingID(ctx, models.ID(created.OrderTrackingID))
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

func (s *orderService) status(t *testing.T, order *domain.Order) domain.OrderStatus {
	t.Helper()
	tracked, err := s.trackOrder.Execute(context.Background(), &TrackOrderQuery{OrderTrackingID: order.TrackingID.String()})
	require.NoError(t, err)
	return tracked.OrderStatus
}

func TestOrderSaga_HappyPath(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)
	order := svc.create(t)
	assert.Equal(t, domain.OrderStatusPending, svc.status(t, order))

	require.NoError(t, svc.paymentResponse.Execute(ctx, &PaymentResponse{OrderID: order.ID, Status: PaymentStatusCompleted}))
	assert.Equal(t, domain.OrderStatusPaid, svc.status(t, order))

	require.NoError(t, svc.approvalResponse.Execute(ctx, &ApprovalResponse{OrderID: order.ID, Status: ApprovalStatusApproved}))
	assert.Equal(t, domain.OrderStatusApproved, svc.status(t, order))

	assert.Equal(t, []events.Topic{
		events.OrderCreatedTopic,
		events.OrderPaidTopic,
		events.OrderApprovedTopic,
	}, svc.published(t))

	entries, err := svc.sagaLog.FindByOrderID(ctx, order.ID.String())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, sagalog.StatusStarted, entries[0].Status)
	assert.Equal(t, sagalog.StatusStepDone, entries[1].Status)
	assert.Equal(t, sagalog.StatusCompleted, entries[2].Status)
}

func TestOrderSaga_ApprovalRejectedEndsCancelled(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)
	order := svc.create(t)

	require.NoError(t, svc.paymentResponse.Execute(ctx, &PaymentResponse{OrderID: order.ID, Status: PaymentStatusCompleted}))
	assert.Equal(t, domain.OrderStatusPaid, svc.status(t, order))

	require.NoError(t, svc.approvalResponse.Execute(ctx, &ApprovalResponse{
		OrderID:         order.ID,
		Status:          ApprovalStatusRejected,
		FailureMessages: []string{"restaurant is closed"},
	}))
	assert.Equal(t, domain.OrderStatusCancelling, svc.status(t, order))

	// payment context refunds and confirms
	require.NoError(t, svc.paymentResponse.Execute(ctx, &PaymentResponse{
		OrderID:         order.ID,
		Status:          PaymentStatusCancelled,
		FailureMessages: []string{"payment refunded"},
	}))

	tracked, err := svc.trackOrder.Execute(ctx, &TrackOrderQuery{OrderTrackingID: order.TrackingID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, tracked.OrderStatus)
	assert.Equal(t, []string{"restaurant is closed", "payment refunded"}, tracked.FailureMessages)

	assert.Equal(t, []events.Topic{
		events.OrderCreatedTopic,
		events.OrderPaidTopic,
		events.OrderCancelledTopic,
	}, svc.published(t))
}

func TestOrderSaga_PaymentFailedCancelsDirectly(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)
	order := svc.create(t)

	require.NoError(t, svc.paymentResponse.Execute(ctx, &PaymentResponse{
		OrderID:         order.ID,
		Status:          PaymentStatusFailed,
		FailureMessages: []string{"insufficient funds"},
	}))

	assert.Equal(t, domain.OrderStatusCancelled, svc.status(t, order))
	assert.Equal(t, []events.Topic{events.OrderCreatedTopic}, svc.published(t))
}

func TestOrderSaga_RedeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)
	order := svc.create(t)

	paid := &PaymentResponse{OrderID: order.ID, Status: PaymentStatusCompleted}
	rejected := &ApprovalResponse{OrderID: order.ID, Status: ApprovalStatusRejected, FailureMessages: []string{"closed"}}
	refunded := &PaymentResponse{OrderID: order.ID, Status: PaymentStatusCancelled, FailureMessages: []string{"refunded"}}

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.paymentResponse.Execute(ctx, paid))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, svc.approvalResponse.Execute(ctx, rejected))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, svc.paymentResponse.Execute(ctx, refunded))
	}

	stored := findOrder(t, svc.repo, order.ID)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)
	assert.Equal(t, []string{"closed", "refunded"}, stored.FailureMessages)
	assert.Equal(t, 1, svc.publishedCount(t, events.OrderPaidTopic))
	assert.Equal(t, 1, svc.publishedCount(t, events.OrderCancelledTopic))

	// a late payment success after cancellation changes nothing
	require.NoError(t, svc.paymentResponse.Execute(ctx, paid))
	assert.Equal(t, domain.OrderStatusCancelled, svc.status(t, order))
	assert.Equal(t, 1, svc.publishedCount(t, events.OrderPaidTopic))
}

func TestOrderSaga_ConcurrentPaymentDeliveries(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)
	order := svc.create(t)

	const deliveries = 8
	var wg sync.WaitGroup
	errs := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.paymentResponse.Execute(ctx, &PaymentResponse{OrderID: order.ID, Status: PaymentStatusCompleted})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stored := findOrder(t, svc.repo, order.ID)
	assert.Equal(t, domain.OrderStatusPaid, stored.Status)
	assert.Equal(t, 2, stored.Version.Value)
	assert.Equal(t, 1, svc.publishedCount(t, events.OrderPaidTopic))
}

func TestOrderSaga_ConcurrentDeliveriesAcrossInstances(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)
	order := svc.create(t)

	// separate lock tables stand in for separate service instances sharing
	// one store; the version check is what keeps them apart
	const deliveries = 2
	var wg sync.WaitGroup
	errs := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		step := NewOrderPaymentSaga(svc.repo, domain.NewOrderDomainService(), NewOrderLocks())
		uc := NewProcessPaymentResponse(step, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- uc.Execute(ctx, &PaymentResponse{OrderID: order.ID, Status: PaymentStatusCompleted})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, domain.OrderStatusPaid, findOrder(t, svc.repo, order.ID).Status)
	assert.Equal(t, 1, svc.publishedCount(t, events.OrderPaidTopic))
}

func TestOrderSaga_UnknownStatusIsInvalid(t *testing.T) {
	svc := newOrderService(t)

	err := svc.paymentResponse.Execute(context.Background(), &PaymentResponse{OrderID: models.GenerateUUID(), Status: "REFUSED"})
	require.Error(t, err)
	assert.True(t, IsInvalidCommand(err))

	err = svc.approvalResponse.Execute(context.Background(), &ApprovalResponse{OrderID: models.GenerateUUID(), Status: "MAYBE"})
	require.Error(t, err)
	assert.True(t, IsInvalidCommand(err))
}

func TestOrderSaga_PublishFailureDoesNotStrandSaga(t *testing.T) {
	ctx := context.Background()
	svc := newOrderService(t)
	order := svc.create(t)
	require.Equal(t, []events.Topic{events.OrderCreatedTopic}, svc.published(t))

	paid := &PaymentResponse{OrderID: order.ID, Status: PaymentStatusCompleted}
	require.NoError(t, svc.paymentResponse.Execute(ctx, paid))

	svc.publisher.failNext(1)
	_, err := svc.relay.RelayBatch(ctx)
	require.Error(t, err)

	// the broker retries the payment reply; the order is already PAID
	require.NoError(t, svc.paymentResponse.Execute(ctx, paid))
	assert.Equal(t, domain.OrderStatusPaid, svc.status(t, order))

	assert.Equal(t, []events.Topic{events.OrderCreatedTopic, events.OrderPaidTopic}, svc.published(t))
	assert.Equal(t, 1, svc.publishedCount(t, events.OrderPaidTopic))

	require.NoError(t, svc.approvalResponse.Execute(ctx, &ApprovalResponse{OrderID: order.ID, Status: ApprovalStatusApproved}))
	assert.Equal(t, domain.OrderStatusApproved, svc.status(t, order))
	assert.Equal(t, 1, svc.publishedCount(t, events.OrderApprovedTopic))
}
