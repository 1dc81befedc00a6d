package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionLocks_SerializesAndReleases(t *testing.T) {
	locks := newSessionLocks()
	id := uuid.New()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(id)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.Len(), "no entry survives once every holder is gone")
}

func TestSessionLocks_IndependentSessions(t *testing.T) {
	locks := newSessionLocks()
	a, b := uuid.New(), uuid.New()

	unlockA := locks.Lock(a)
	unlockB := locks.Lock(b)
	assert.Equal(t, 2, locks.Len())

	unlockA()
	unlockB()
	assert.Zero(t, locks.Len())
}
