package txn

import (
	"sync"

	"github.com/tdex-network/tdex-nft-exchange/internal/core/domain"
)

type keyLock struct {
	sync.Mutex
	refs int
}

// keyLocks hands out one mutex per asset key and forgets it once nobody holds
// or waits for it.
type keyLocks struct {
	mu    sync.Mutex
	locks map[domain.AssetKey]*keyLock
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[domain.AssetKey]*keyLock)}
}

func (k *keyLocks) lock(key domain.AssetKey) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		k.mu.Lock()
		defer k.mu.Unlock()
		l.refs--
		if l.refs <= 0 {
			delete(k.locks, key)
		}
	}
}
