package application

import (
	"sync"

	"github.com/draftea/food-ordering/shared/models"
)

// OrderLocks serializes load-mutate-persist sequences per order inside one
// process. Entries are dropped as soon as nobody holds or waits for them.
type OrderLocks struct {
	mu    sync.Mutex
	locks map[models.ID]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

// NewOrderLocks creates an empty lock table
func NewOrderLocks() *OrderLocks {
	return &OrderLocks{locks: make(map[models.ID]*orderLock)}
}

// Lock blocks until the caller owns orderID and returns the release func
func (l *OrderLocks) Lock(orderID models.ID) func() {
	l.mu.Lock()
	lock, ok := l.locks[orderID]
	if !ok {
		lock = &orderLock{}
		l.locks[orderID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, orderID)
		}
		l.mu.Unlock()
	}
}

// WithLock runs fn while holding the lock of orderID
func (l *OrderLocks) WithLock(orderID models.ID, fn func() error) error {
	unlock := l.Lock(orderID)
	defer unlock()
	return fn()
}

func (l *OrderLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
