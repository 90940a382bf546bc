package resilience

import (
	"hash/fnv"
	"sync"
)

const keyedMutexStripes = 64

// KeyedMutex serializes critical sections per string key using a fixed set of
// striped locks. Distinct keys may share a stripe; the same key always maps to
// the same stripe, which is the only guarantee callers rely on.
type KeyedMutex struct {
	stripes [keyedMutexStripes]sync.Mutex
}

func (m *KeyedMutex) Lock(key string) func() {
	stripe := &m.stripes[stripeIndex(key)]
	stripe.Lock()
	return stripe.Unlock
}

func stripeIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % keyedMutexStripes)
}
