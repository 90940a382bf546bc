package resilience

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var m KeyedMutex

	const workers = 16
	const perWorker = 200

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				unlock := m.Lock("rnd-1:user-a")
				counter++
				unlock()
			}
		}()
	}
	wg.Wait()

	if counter != workers*perWorker {
		t.Fatalf("lost updates under same key: got=%d want=%d", counter, workers*perWorker)
	}
}

func TestKeyedMutex_SameKeySameStripe(t *testing.T) {
	if stripeIndex("rnd-1:user-a") != stripeIndex("rnd-1:user-a") {
		t.Fatalf("stripe index must be stable for a key")
	}
}
