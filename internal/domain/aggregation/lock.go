package aggregation

import (
	"context"
	"sync"
)

// ItemLocker serialises syncs of the same item. The returned func releases the lock.
type ItemLocker interface {
	Lock(ctx context.Context, itemID string) (func(), error)
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex is an in-process ItemLocker. Entries are dropped once no caller holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

var _ ItemLocker = (*KeyedMutex)(nil)

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry)}
}

// Lock blocks until itemID is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, itemID string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[itemID]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.entries[itemID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(itemID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			k.release(itemID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(itemID string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, itemID)
	}
}
