package analyze

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
)

var digitsRe = regexp.MustCompile(`\d+`)

// Entry is a frame file and its score
type Entry struct {
	File  string
	Score int
}

// Buckets groups the blocks of log by score range
func Buckets(log *Log) [][]Entry {

	out := make([][]Entry, Bins)

	for i := range log.Blocks {
		b := &log.Blocks[i]
		s := b.Score()
		bin := BinIndex(s)
		out[bin] = append(out[bin], Entry{File: b.File, Score: s})
	}

	for _, entries := range out {
		sort.SliceStable(entries, func(i, j int) bool {
			return NaturalLess(entries[i].File, entries[j].File)
		})
	}

	return out
}

// NoDetections returns the files of blocks without any detected object in
// natural order
func NoDetections(log *Log) []string {

	var files []string

	for i := range log.Blocks {
		if log.Blocks[i].NoDetection() {
			files = append(files, log.Blocks[i].File)
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		return NaturalLess(files[i], files[j])
	})

	return files
}

// NaturalLess orders names by the numbers they contain, so frame_2 sorts
// before frame_10.  Names with equal numbers fall back to byte order.
func NaturalLess(a, b string) bool {

	na := digitsRe.FindAllString(a, -1)
	nb := digitsRe.FindAllString(b, -1)

	for i := 0; i < len(na) && i < len(nb); i++ {
		x, errX := strconv.ParseUint(na[i], 10, 64)
		y, errY := strconv.ParseUint(nb[i], 10, 64)

		if errX != nil || errY != nil {
			if na[i] != nb[i] {
				return na[i] < nb[i]
			}
			continue
		}

		if x != y {
			return x < y
		}
	}

	if len(na) != len(nb) {
		return len(na) < len(nb)
	}

	return a < b
}

// WriteBuckets writes one file per score range into dir named
// <base>_files_scores<range>_cnt-<n>.txt, each line holding "<file> score:<s>".
// A file is written for every range, even when empty.  The paths written are
// returned.
func WriteBuckets(dir string, log *Log, sum Summary) ([]string, error) {

	var paths []string

	for i, entries := range Buckets(log) {

		name := fmt.Sprintf("%s_files_scores%s_cnt-%d.txt", log.Base(), RangeKey(i), sum.Histogram[i])
		path := filepath.Join(dir, name)

		lines := make([]string, len(entries))

		for j, e := range entries {
			lines[j] = fmt.Sprintf("%s score:%d", e.File, e.Score)
		}

		if err := writeLines(path, lines); err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

// WriteNoDetections writes <base>_files_no_detections_total-<n>.txt into dir.
// Nothing is written when every frame had a detection and the returned path
// is empty.
func WriteNoDetections(dir string, log *Log) (string, error) {

	files := NoDetections(log)

	if len(files) == 0 {
		return "", nil
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_files_no_detections_total-%d.txt",
		log.Base(), len(files)))

	return path, writeLines(path, files)
}

func writeLines(path string, lines []string) error {

	f, err := os.Create(path)

	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}

	w := bufio.NewWriter(f)

	for _, l := range lines {
		w.WriteString(l)
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}

	return errors.Wrapf(f.Close(), "closing %s", path)
}
