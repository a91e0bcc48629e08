package trade

import (
	"sync"

	"github.com/google/uuid"
)

// userLocks serializes buy/sell flows per user. A second submission for the
// same user waits for the first and then revalidates against fresh reads, so
// a double-click cannot double-debit a balance read once. Unrelated users
// never contend.
type userLocks struct {
	locks    map[uuid.UUID]*sync.Mutex
	mapMutex sync.RWMutex
}

func newUserLocks() *userLocks {
	return &userLocks{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// Lock locks the flows for a specific user.
func (u *userLocks) Lock(userID uuid.UUID) {
	u.mapMutex.Lock()
	if u.locks[userID] == nil {
		u.locks[userID] = &sync.Mutex{}
	}
	userMutex := u.locks[userID]
	u.mapMutex.Unlock()

	userMutex.Lock()
}

// Unlock unlocks the flows for a specific user.
func (u *userLocks) Unlock(userID uuid.UUID) {
	u.mapMutex.RLock()
	userMutex := u.locks[userID]
	u.mapMutex.RUnlock()

	if userMutex != nil {
		userMutex.Unlock()
	}
}
