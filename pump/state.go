package pump

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// State is shared between the pump, the engine callbacks and the main
// goroutine.  It holds the quit flag, the first fatal error and the frame
// completion signal.
type State struct {
	quit atomic.Bool
	// failure is recorded once, the first failure wins
	failOnce sync.Once
	failed   atomic.Bool
	err      error
	// done carries one token per released frame, capacity one so it behaves
	// as a binary semaphore
	done chan struct{}
	// dropped counts release signals that arrived while a token was pending
	dropped atomic.Int64
	log     *zap.SugaredLogger
}

// NewState returns an initialised State
func NewState(log *zap.SugaredLogger) *State {

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &State{
		done: make(chan struct{}, 1),
		log:  log,
	}
}

// Quit asks the pump to stop at the top of its next iteration
func (s *State) Quit() {
	s.quit.Store(true)
}

// Quitting reports if a stop has been requested
func (s *State) Quitting() bool {
	return s.quit.Load()
}

// Fail records err as the run result and requests a stop.  Only the first
// call has any effect.
func (s *State) Fail(err error) {
	s.failOnce.Do(func() {
		s.err = err
		s.failed.Store(true)
	})

	s.Quit()
}

// Failed reports if a failure has been recorded
func (s *State) Failed() bool {
	return s.failed.Load()
}

// Err returns the recorded failure or nil
func (s *State) Err() error {
	if !s.failed.Load() {
		return nil
	}

	return s.err
}

// ExitCode returns the process exit status for the recorded result
func (s *State) ExitCode() int {
	if s.Failed() {
		return 1
	}

	return 0
}

// Release signals that the engine has finished with the in flight frame.
// It is safe to call from any goroutine and never blocks.
func (s *State) Release() {
	select {
	case s.done <- struct{}{}:
	default:
		s.dropped.Add(1)
		s.log.Warn("frame release signalled while one is already pending, dropped")
	}
}

// Dropped returns the number of release signals discarded
func (s *State) Dropped() int64 {
	return s.dropped.Load()
}

// await blocks until the engine releases the in flight frame
func (s *State) await() {
	<-s.done
}
