package pump

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// statsWindow bounds the number of cost samples kept for endless runs
const statsWindow = 4096

// Stats summarises a pump run.  Cost figures cover the most recent frames.
type Stats struct {
	// Frames is the number of frames released by the engine
	Frames int
	// Recovered is the number of frames that could not be read and were
	// submitted zero filled
	Recovered int
	MeanMS    float64
	StdDevMS  float64
	MinMS     float64
	MaxMS     float64
}

type stats struct {
	mu       sync.Mutex
	frames   int
	recovers int
	costs    []float64
	next     int
}

func newStats() *stats {
	return &stats{
		costs: make([]float64, 0, 64),
	}
}

func (s *stats) add(costMS float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++

	if len(s.costs) < statsWindow {
		s.costs = append(s.costs, costMS)
		return
	}

	s.costs[s.next] = costMS
	s.next = (s.next + 1) % statsWindow
}

func (s *stats) recovered() {
	s.mu.Lock()
	s.recovers++
	s.mu.Unlock()
}

func (s *stats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Stats{
		Frames:    s.frames,
		Recovered: s.recovers,
	}

	if len(s.costs) == 0 {
		return out
	}

	if len(s.costs) == 1 {
		out.MeanMS = s.costs[0]
	} else {
		out.MeanMS, out.StdDevMS = stat.MeanStdDev(s.costs, nil)
	}

	out.MinMS = floats.Min(s.costs)
	out.MaxMS = floats.Max(s.costs)

	return out
}
