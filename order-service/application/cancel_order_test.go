package application

import (
	"context"
	"testing"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/infrastructure"
	"github.com/draftea/food-ordering/order-service/mocks"
	"github.com/draftea/food-ordering/shared/events"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCancelOrder_Execute(t *testing.T) {
	tests := []struct {
		name             string
		status           domain.OrderStatus
		expectedStatus   domain.OrderStatus
		expectEvent      bool
		expectDomainErr  bool
		expectedMessages []string
	}{
		{
			name:             "pending order is cancelled",
			status:           domain.OrderStatusPending,
			expectedStatus:   domain.OrderStatusCancelled,
			expectEvent:      true,
			expectedMessages: []string{"changed my mind"},
		},
		{
			name:             "paid order waits for refund",
			status:           domain.OrderStatusPaid,
			expectedStatus:   domain.OrderStatusCancelling,
			expectEvent:      true,
			expectedMessages: []string{"changed my mind"},
		},
		{
			name:             "cancelled order is left alone",
			status:           domain.OrderStatusCancelled,
			expectedStatus:   domain.OrderStatusCancelled,
			expectedMessages: []string{},
		},
		{
			name:            "approved order cannot be cancelled",
			status:          domain.OrderStatusApproved,
			expectedStatus:  domain.OrderStatusApproved,
			expectDomainErr: true,
		},
		{
			name:            "cancelling order cannot be cancelled again",
			status:          domain.OrderStatusCancelling,
			expectedStatus:  domain.OrderStatusCancelling,
			expectDomainErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := infrastructure.NewMemoryOrderRepository()
			order := storeOrder(t, repo, tt.status)

			useCase := NewCancelOrder(repo, domain.NewOrderDomainService(), nil, NewOrderLocks())
			result, err := useCase.Execute(context.Background(), &CancelOrderCommand{
				OrderTrackingID: order.TrackingID.String(),
				Reason:          "changed my mind",
			})

			stored := findOrder(t, repo, order.ID)
			assert.Equal(t, tt.expectedStatus, stored.Status)

			pending := repo.PendingEvents()
			if tt.expectEvent {
				require.Len(t, pending, 1)
				assert.Equal(t, events.OrderCancelledTopic, pending[0].Topic)
				assert.Equal(t, order.ID, pending[0].AggregateID)
			} else {
				assert.Empty(t, pending)
			}

			if tt.expectDomainErr {
				require.Error(t, err)
				assert.True(t, domain.IsDomainError(err))
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, result.OrderStatus)
			assert.Equal(t, tt.expectedMessages, stored.FailureMessages)
		})
	}
}

func TestCancelOrder_DefaultReason(t *testing.T) {
	repo := infrastructure.NewMemoryOrderRepository()
	order := storeOrder(t, repo, domain.OrderStatusPending)

	useCase := NewCancelOrder(repo, domain.NewOrderDomainService(), nil, NewOrderLocks())
	_, err := useCase.Execute(context.Background(), &CancelOrderCommand{OrderTrackingID: order.TrackingID.String()})

	require.NoError(t, err)
	assert.Equal(t, []string{"order cancelled by customer"}, findOrder(t, repo, order.ID).FailureMessages)
}

func TestCancelOrder_Errors(t *testing.T) {
	t.Run("invalid tracking id", func(t *testing.T) {
		useCase := NewCancelOrder(mocks.NewMockOrderRepository(t), domain.NewOrderDomainService(), nil, NewOrderLocks())

		_, err := useCase.Execute(context.Background(), &CancelOrderCommand{OrderTrackingID: "nope"})

		require.Error(t, err)
		assert.True(t, IsInvalidCommand(err))
	})

	t.Run("order not found", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository(t)
		repo.EXPECT().FindByTrackingID(mock.Anything, mock.Anything).Return(nil, nil).Once()
		useCase := NewCancelOrder(repo, domain.NewOrderDomainService(), nil, NewOrderLocks())

		_, err := useCase.Execute(context.Background(), &CancelOrderCommand{OrderTrackingID: models.GenerateUUID().String()})

		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("repository error", func(t *testing.T) {
		repo := mocks.NewMockOrderRepository(t)
		repo.EXPECT().FindByTrackingID(mock.Anything, mock.Anything).Return(nil, errors.New("database error")).Once()
		useCase := NewCancelOrder(repo, domain.NewOrderDomainService(), nil, NewOrderLocks())

		_, err := useCase.Execute(context.Background(), &CancelOrderCommand{OrderTrackingID: models.GenerateUUID().String()})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to find order")
		assert.False(t, domain.IsNotFound(err))
	})
}
