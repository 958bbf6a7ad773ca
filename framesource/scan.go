package framesource

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/swdee/go-rkiva"
)

var (
	// ErrDirectoryUnreadable is returned when the input directory can't be
	// opened or listed
	ErrDirectoryUnreadable = errors.Mark(errors.New("directory unreadable"), rkiva.ErrConfig)
	// ErrNoMatchingFiles is returned when a directory holds no .yuv files
	ErrNoMatchingFiles = errors.Mark(errors.New("no yuv files found"), rkiva.ErrConfig)
)

// IsYUV reports if the file name has a .yuv or .YUV extension.  Only the
// text after the last dot is compared and a name whose only dot is the first
// character does not match.
func IsYUV(name string) bool {

	dot := strings.LastIndexByte(name, '.')

	if dot <= 0 {
		return false
	}

	ext := name[dot:]

	return ext == ".yuv" || ext == ".YUV"
}

// ScanOptions change how ScanDirectory lists files
type ScanOptions struct {
	// Sort orders the result lexically instead of directory listing order
	Sort bool
}

// ScanDirectory returns the paths of all regular .yuv files in dir.  Symbolic
// links are followed.  Files are returned in the order the directory listing
// yields them unless opts.Sort is set.
func ScanDirectory(dir string, opts ScanOptions) ([]string, error) {

	d, err := os.Open(dir)

	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "cannot open directory %s", dir),
			ErrDirectoryUnreadable)
	}

	defer d.Close()

	// ReadDir on the file handle keeps directory order, os.ReadDir would sort
	entries, err := d.ReadDir(-1)

	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "cannot list directory %s", dir),
			ErrDirectoryUnreadable)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {

		if !IsYUV(entry.Name()) {
			continue
		}

		full := filepath.Join(dir, entry.Name())

		// stat rather than entry.Type() so symlinks to files are accepted
		info, err := os.Stat(full)

		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		files = append(files, full)
	}

	if len(files) == 0 {
		return nil, errors.WithHint(
			errors.Wrapf(ErrNoMatchingFiles, "in directory %s", dir),
			"input files must end in .yuv or .YUV",
		)
	}

	if opts.Sort {
		sort.Strings(files)
	}

	return files, nil
}
