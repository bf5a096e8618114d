package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLockHeld is returned when a lock is already owned by someone else.
var ErrLockHeld = errors.New("lock is held by another owner")

type slot struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process lock table: one mutex per key, created on demand
// and dropped once nobody holds or waits for it.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewKeyedMutex creates an empty lock table.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

func (k *KeyedMutex) ref(key string) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *KeyedMutex) unref(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// Lock blocks until key is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, key string) error {
	s := k.ref(key)
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.unref(key, s)
		return ctx.Err()
	}
}

// TryLock takes key only if it is free.
func (k *KeyedMutex) TryLock(key string) bool {
	s := k.ref(key)
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		k.unref(key, s)
		return false
	}
}

// Unlock releases key. Unlocking a key that is not held panics, like sync.Mutex.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	s, ok := k.slots[key]
	k.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("lock: unlock of unlocked key %q", key))
	}
	<-s.ch
	k.unref(key, s)
}

// Acquire takes key without waiting. ttl is ignored: in-process locks die with the process.
func (k *KeyedMutex) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	if !k.TryLock(key) {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, key)
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { k.Unlock(key) })
		return nil
	}, nil
}
