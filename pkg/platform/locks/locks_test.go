package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_SerializesSameKey(t *testing.T) {
	k := NewKeyed()

	const goroutines = 100
	counter := 0

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			k.Lock("asset:1")
			counter++
			k.Unlock("asset:1")
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter, "increments under the same key must be serialized")
}

func TestKeyed_IndependentKeysDoNotBlock(t *testing.T) {
	k := NewKeyed()

	k.Lock("asset:1")
	done := make(chan struct{})
	go func() {
		k.Lock("asset:2")
		k.Unlock("asset:2")
		close(done)
	}()
	<-done // would deadlock if keys shared a mutex
	k.Unlock("asset:1")
}

func TestKeyed_DropsIdleEntries(t *testing.T) {
	k := NewKeyed()
	k.Lock("asset:9")
	k.Unlock("asset:9")

	k.mu.Lock()
	defer k.mu.Unlock()
	assert.Empty(t, k.locks, "released keys should not accumulate")
}
