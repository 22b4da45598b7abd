package utils

import (
	"sync"
	"time"
)

// CacheEntry represents a cached user data entry
type CacheEntry struct {
	User      *User
	ExpiresAt time.Time
	Mutex     sync.RWMutex
}

// UserCache manages cached user data between database round trips.
type UserCache struct {
	data          map[int64]*CacheEntry
	mutex         sync.RWMutex
	ttl           time.Duration
	cleanupTicker *time.Ticker
	done          chan bool
}

// Global cache instance
var Cache *UserCache

// InitializeCache sets up the user cache system
func InitializeCache(ttl time.Duration) {
	Cache = &UserCache{
		data: make(map[int64]*CacheEntry),
		ttl:  ttl,
		done: make(chan bool),
	}

	Cache.cleanupTicker = time.NewTicker(5 * time.Minute)
	go Cache.cleanupRoutine()
}

// CloseCache stops the cache cleanup routine
func CloseCache() {
	if Cache != nil && Cache.cleanupTicker != nil {
		Cache.cleanupTicker.Stop()
		Cache.done <- true
	}
}

// Get retrieves a user from cache
func (uc *UserCache) Get(userID int64) (*User, bool) {
	uc.mutex.RLock()
	entry, exists := uc.data[userID]
	uc.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	entry.Mutex.RLock()
	defer entry.Mutex.RUnlock()

	if time.Now().After(entry.ExpiresAt) {
		uc.mutex.Lock()
		delete(uc.data, userID)
		uc.mutex.Unlock()
		return nil, false
	}

	// Return a copy to prevent external modifications
	userCopy := *entry.User
	return &userCopy, true
}

// Set stores a user in cache
func (uc *UserCache) Set(userID int64, user *User) {
	userCopy := *user

	entry := &CacheEntry{
		User:      &userCopy,
		ExpiresAt: time.Now().Add(uc.ttl),
	}

	uc.mutex.Lock()
	uc.data[userID] = entry
	uc.mutex.Unlock()
}

// Delete removes a user from cache
func (uc *UserCache) Delete(userID int64) {
	uc.mutex.Lock()
	delete(uc.data, userID)
	uc.mutex.Unlock()
}

// Size returns the number of entries in cache
func (uc *UserCache) Size() int {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return len(uc.data)
}

// cleanupRoutine removes expired entries periodically
func (uc *UserCache) cleanupRoutine() {
	for {
		select {
		case <-uc.cleanupTicker.C:
			uc.cleanup()
		case <-uc.done:
			return
		}
	}
}

func (uc *UserCache) cleanup() {
	now := time.Now()
	uc.mutex.Lock()
	defer uc.mutex.Unlock()
	for userID, entry := range uc.data {
		if now.After(entry.ExpiresAt) {
			delete(uc.data, userID)
		}
	}
}

// GetCachedUser retrieves a user, preferring the cache over the
// database.
func GetCachedUser(userID int64) (*User, error) {
	if Cache != nil {
		if user, ok := Cache.Get(userID); ok {
			return user, nil
		}
	}

	user, err := GetUser(userID)
	if err != nil {
		return nil, err
	}
	if Cache != nil {
		Cache.Set(userID, user)
	}
	return user, nil
}

// UpdateCachedUser applies updates through the database and refreshes
// the cache with the returned row. Without a database the cache itself
// is the balance of record, so increments apply to the cached copy.
func UpdateCachedUser(userID int64, updates UserUpdateData) (*User, error) {
	dbMutex.RLock()
	noDB := DB == nil
	dbMutex.RUnlock()

	if noDB && Cache != nil {
		user, err := GetCachedUser(userID)
		if err != nil {
			return nil, err
		}
		user.Chips += updates.ChipsIncrement
		user.TotalXP += updates.TotalXPIncrement
		user.Wins += updates.WinsIncrement
		user.Losses += updates.LossesIncrement
		Cache.Set(userID, user)
		return user, nil
	}

	user, err := UpdateUser(userID, updates)
	if err != nil {
		return nil, err
	}
	if Cache != nil {
		Cache.Set(userID, user)
	}
	return user, nil
}

// InvalidateUserCache drops a user's cache entry, forcing the next read
// to hit the database.
func InvalidateUserCache(userID int64) {
	if Cache != nil {
		Cache.Delete(userID)
	}
}
