package application

import (
	"context"
	"testing"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/mocks"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTrackOrder_Execute(t *testing.T) {
	trackingID := models.GenerateUUID()

	tests := []struct {
		name           string
		trackingID     string
		setupMocks     func(*mocks.MockOrderRepository)
		expectedError  string
		expectedResult *TrackOrderResponse
	}{
		{
			name:       "order found",
			trackingID: trackingID.String(),
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByTrackingID(mock.Anything, trackingID).Return(&domain.Order{
					ID:              models.GenerateUUID(),
					TrackingID:      trackingID,
					Status:          domain.OrderStatusCancelled,
					FailureMessages: []string{"insufficient funds"},
				}, nil).Once()
			},
			expectedResult: &TrackOrderResponse{
				OrderTrackingID: trackingID.String(),
				OrderStatus:     domain.OrderStatusCancelled,
				FailureMessages: []string{"insufficient funds"},
			},
		},
		{
			name:       "no failure messages is an empty list",
			trackingID: trackingID.String(),
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByTrackingID(mock.Anything, trackingID).Return(&domain.Order{
					TrackingID: trackingID,
					Status:     domain.OrderStatusPending,
				}, nil).Once()
			},
			expectedResult: &TrackOrderResponse{
				OrderTrackingID: trackingID.String(),
				OrderStatus:     domain.OrderStatusPending,
				FailureMessages: []string{},
			},
		},
		{
			name:          "invalid tracking id",
			trackingID:    "invalid",
			setupMocks:    func(repo *mocks.MockOrderRepository) {},
			expectedError: "invalid tracking ID",
		},
		{
			name:       "order not found",
			trackingID: trackingID.String(),
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByTrackingID(mock.Anything, trackingID).Return(nil, nil).Once()
			},
			expectedError: "order not found: " + trackingID.String(),
		},
		{
			name:       "repository error",
			trackingID: trackingID.String(),
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByTrackingID(mock.Anything, trackingID).Return(nil, errors.New("database error")).Once()
			},
			expectedError: "failed to find order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockOrderRepository(t)
			tt.setupMocks(repo)

			result, err := NewTrackOrder(repo).Execute(context.Background(), &TrackOrderQuery{OrderTrackingID: tt.trackingID})

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedResult, result)
		})
	}
}
