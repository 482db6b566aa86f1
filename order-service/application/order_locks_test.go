package application

import (
	"sync"
	"testing"

	"github.com/draftea/food-ordering/shared/models"
	"github.com/stretchr/testify/assert"
)

func TestOrderLocks_SerializesSameOrder(t *testing.T) {
	locks := NewOrderLocks()
	orderID := models.GenerateUUID()

	var (
		wg      sync.WaitGroup
		active  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locks.WithLock(orderID, func() error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.size())
}

func TestOrderLocks_IndependentOrders(t *testing.T) {
	locks := NewOrderLocks()

	unlockA := locks.Lock(models.GenerateUUID())
	unlockB := locks.Lock(models.GenerateUUID())
	assert.Equal(t, 2, locks.size())

	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.size())
}
