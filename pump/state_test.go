package pump

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestStateFailOnce(t *testing.T) {
	s := NewState(nil)

	assert.NoError(t, s.Err())
	assert.Equal(t, 0, s.ExitCode())

	first := errors.New("first")

	var wg sync.WaitGroup

	s.Fail(first)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Fail(errors.New("other"))
		}()
	}

	wg.Wait()

	assert.Same(t, first, s.Err())
	assert.True(t, s.Quitting())
	assert.Equal(t, 1, s.ExitCode())
}

func TestStateReleaseIsBinary(t *testing.T) {
	s := NewState(nil)

	s.Release()
	s.Release()
	assert.Equal(t, int64(1), s.Dropped())

	// only one token pending
	s.await()

	select {
	case <-s.done:
		t.Fatal("unexpected second token")
	default:
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
