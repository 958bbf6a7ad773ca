package analyze

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// Options of an analysis run
type Options struct {
	Logs []string
	// Compare prints the logs side by side instead of writing file lists
	Compare bool
	// OutDir receives the score range file lists
	OutDir string
	// ROI is an optional polygon "x1,y1,x2,y2,..."
	ROI string
	// ROIMin is the fraction of a box that must be inside the ROI
	ROIMin float64
}

// Run analyses the result logs and writes the report to w
func Run(opts Options, w io.Writer) error {

	if len(opts.Logs) == 0 {
		return errors.New("no result logs given")
	}

	var roi *ROI

	if opts.ROI != "" {
		var err error
		roi, err = ParseROI(opts.ROI)

		if err != nil {
			return err
		}
	}

	outDir := opts.OutDir

	if outDir == "" {
		outDir = "."
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", outDir)
	}

	report := NewReport(w)

	// parse everything first as the detection total spans all logs
	var logs []*Log

	total := 0

	for _, path := range opts.Logs {

		log, err := ParseFile(path)

		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(w, "file does not exist: %s\n", path)
				continue
			}

			return err
		}

		total += log.Detected()
		logs = append(logs, log)
	}

	report.Total(total)

	sums := make([]Summary, len(logs))

	for i, log := range logs {
		sums[i] = Summarize(log, total)
	}

	if opts.Compare && len(logs) > 1 {
		if err := report.Compare(sums); err != nil {
			return err
		}
	}

	for i, log := range logs {

		if err := report.Summary(sums[i]); err != nil {
			return err
		}

		if roi != nil {
			objects, frames := roi.Hits(log, opts.ROIMin)
			report.ROI(sums[i].Label, objects, frames, len(log.Blocks))
		}

		if opts.Compare && len(logs) > 1 {
			continue
		}

		paths, err := WriteBuckets(outDir, log, sums[i])

		if err != nil {
			return err
		}

		report.Written(paths...)

		path, err := WriteNoDetections(outDir, log)

		if err != nil {
			return err
		}

		if path != "" {
			report.Written(path)
		}
	}

	return nil
}
