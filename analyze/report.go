package analyze

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
)

// Report renders summaries as terminal tables and charts
type Report struct {
	w io.Writer
}

// NewReport returns a Report writing to w
func NewReport(w io.Writer) *Report {
	return &Report{w: w}
}

// Total prints the detection count over all logs
func (r *Report) Total(detected int) {
	fmt.Fprintf(r.w, "Total detections across all logs: %d\n", detected)
}

// Summary prints the statistics table and the score distribution of one log
func (r *Report) Summary(sum Summary) error {

	if sum.Empty {
		fmt.Fprintf(r.w, "%s: no score data found\n", sum.Label)
		return nil
	}

	fmt.Fprintf(r.w, "\n=== %s statistics ===\n", sum.Label)

	table, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Metric", "Value"},
		{"Total detections", fmt.Sprintf("%d", sum.Detected)},
		{"Detection rate", fmt.Sprintf("%.2f", sum.Rate)},
		{"Average score", fmt.Sprintf("%.2f", sum.Mean)},
		{"Min score", fmt.Sprintf("%.0f", sum.Min)},
		{"Max score", fmt.Sprintf("%.0f", sum.Max)},
		{"Total files", fmt.Sprintf("%d", sum.Files)},
	}).Srender()

	if err != nil {
		return errors.Wrap(err, "rendering summary table")
	}

	fmt.Fprintln(r.w, table)

	fmt.Fprintf(r.w, "\n=== %s score distribution ===\n", sum.Label)

	dist := pterm.TableData{{"Score", "Count", "Percent"}}
	bars := make(pterm.Bars, 0, Bins)

	for i, n := range sum.Histogram {
		dist = append(dist, []string{
			RangeKey(i),
			fmt.Sprintf("%4d", n),
			fmt.Sprintf("%5.1f%%", sum.Percent(i)),
		})

		bars = append(bars, pterm.Bar{Label: RangeKey(i), Value: n})
	}

	table, err = pterm.DefaultTable.WithHasHeader().WithData(dist).Srender()

	if err != nil {
		return errors.Wrap(err, "rendering distribution table")
	}

	fmt.Fprintln(r.w, table)

	chart, err := pterm.DefaultBarChart.WithBars(bars).WithShowValue().Srender()

	if err != nil {
		return errors.Wrap(err, "rendering distribution chart")
	}

	fmt.Fprintln(r.w, chart)

	return nil
}

// Compare prints the summaries of several logs side by side
func (r *Report) Compare(sums []Summary) error {

	header := []string{"Score"}

	for _, s := range sums {
		header = append(header, s.Label)
	}

	data := pterm.TableData{header}

	for i := 0; i < Bins; i++ {
		row := []string{RangeKey(i)}

		for _, s := range sums {
			row = append(row, fmt.Sprintf("%d", s.Histogram[i]))
		}

		data = append(data, row)
	}

	stats := []struct {
		name string
		fn   func(Summary) string
	}{
		{"files", func(s Summary) string { return fmt.Sprintf("%d", s.Files) }},
		{"mean", func(s Summary) string { return fmt.Sprintf("%.2f", s.Mean) }},
		{"min", func(s Summary) string { return fmt.Sprintf("%.0f", s.Min) }},
		{"max", func(s Summary) string { return fmt.Sprintf("%.0f", s.Max) }},
		{"rate", func(s Summary) string { return fmt.Sprintf("%.2f", s.Rate) }},
	}

	for _, st := range stats {
		row := []string{st.name}

		for _, s := range sums {
			row = append(row, st.fn(s))
		}

		data = append(data, row)
	}

	fmt.Fprintf(r.w, "\n=== comparison of %s ===\n", strings.Join(header[1:], ", "))

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()

	if err != nil {
		return errors.Wrap(err, "rendering comparison table")
	}

	fmt.Fprintln(r.w, table)

	return nil
}

// ROI prints the region of interest hit counts of a log
func (r *Report) ROI(label string, objects, frames, total int) {
	fmt.Fprintf(r.w, "%s: %d objects in %d of %d frames inside region of interest\n",
		label, objects, frames, total)
}

// Written lists output files
func (r *Report) Written(paths ...string) {
	for _, p := range paths {
		fmt.Fprintf(r.w, "saved %s\n", p)
	}
}
