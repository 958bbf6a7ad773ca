package analyze

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bins is the number of equal score ranges over 0-100
const Bins = 10

// dividers are the histogram bin edges 0,10,...,100 with the last edge
// nudged up so a score of 100 lands in the final bin
var dividers = func() []float64 {
	d := make([]float64, Bins+1)
	floats.Span(d, 0, 100)
	d[Bins] = math.Nextafter(100, math.Inf(1))
	return d
}()

// RangeKey returns the name of bin i, eg: 00-10, 90-100
func RangeKey(i int) string {
	return fmt.Sprintf("%02d-%02d", i*10, (i+1)*10)
}

// BinIndex returns the histogram bin of a score, out of range scores are
// clamped to the first or last bin
func BinIndex(score int) int {
	switch {
	case score <= 0:
		return 0
	case score >= 100:
		return Bins - 1
	default:
		return score / 10
	}
}

// Summary holds the statistics of one result log
type Summary struct {
	Label string
	// Files is the number of frames in the log
	Files int
	// Detected is the detection count the rate is computed from
	Detected int
	Rate     float64
	Mean     float64
	Min      float64
	Max      float64
	// Histogram counts scores per RangeKey bin
	Histogram []int
	// Empty is set when the log has no blocks
	Empty bool
}

// Percent returns the share of files in bin i
func (s Summary) Percent(i int) float64 {

	if s.Files == 0 {
		return 0
	}

	return float64(s.Histogram[i]) / float64(s.Files) * 100
}

// Summarize computes the statistics of log.  detected is the number of
// detections to report, which may be the total across several logs.
func Summarize(log *Log, detected int) Summary {

	sum := Summary{
		Label:     log.Label(),
		Files:     log.FileLines,
		Detected:  detected,
		Histogram: make([]int, Bins),
	}

	scores := log.Scores()

	if len(scores) == 0 {
		sum.Empty = true
		return sum
	}

	if sum.Files > 0 {
		sum.Rate = float64(detected) / float64(sum.Files)
	}

	x := make([]float64, len(scores))

	for i, s := range scores {
		x[i] = float64(s)
	}

	sum.Mean = stat.Mean(x, nil)
	sum.Min = floats.Min(x)
	sum.Max = floats.Max(x)

	// stat.Histogram needs sorted values inside the divider range
	clamped := make([]float64, len(x))

	for i, v := range x {
		clamped[i] = math.Min(math.Max(v, 0), 100)
	}

	floats.Argsort(clamped, make([]int, len(clamped)))

	counts := stat.Histogram(nil, dividers, clamped, nil)

	for i, c := range counts {
		sum.Histogram[i] = int(c)
	}

	return sum
}
