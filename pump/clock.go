package pump

import "time"

// Clock provides the monotonic time source and sleep used for pacing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// realClock uses the time package
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
