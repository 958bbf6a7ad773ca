// Package framesource provides the cyclic sequence of input frame files fed
// to the frame pump.
package framesource

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/swdee/go-rkiva"
)

// Mode of a Source
type Mode int

const (
	// Single repeats one file
	Single Mode = iota
	// Directory cycles through a list of files
	Directory
)

// String returns the mode name
func (m Mode) String() string {
	if m == Directory {
		return "directory"
	}

	return "single"
}

// ErrEmptySource is returned when a directory source is created without files
var ErrEmptySource = errors.Mark(errors.New("frame source has no files"), rkiva.ErrConfig)

// Source is a round-robin generator over a fixed list of frame files.  Next
// must only be called from one goroutine, Previous may be called from any.
type Source struct {
	mode  Mode
	files []string
	// index of the file Next returns, only written by Next
	index atomic.Int64
}

// NewSingle returns a Source that always yields path
func NewSingle(path string) *Source {
	return &Source{
		mode:  Single,
		files: []string{path},
	}
}

// NewDirectory returns a Source cycling through files in the given order
func NewDirectory(files []string) (*Source, error) {

	if len(files) == 0 {
		return nil, ErrEmptySource
	}

	// take a copy so the caller can't mutate our list
	list := make([]string, len(files))
	copy(list, files)

	return &Source{
		mode:  Directory,
		files: list,
	}, nil
}

// Mode returns the source mode
func (s *Source) Mode() Mode {
	return s.mode
}

// Len returns the number of distinct files in the source
func (s *Source) Len() int {
	return len(s.files)
}

// Files returns a copy of the file list
func (s *Source) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// Index returns the position of the file the next call to Next returns
func (s *Source) Index() int {
	return int(s.index.Load())
}

// Next returns the next file path and advances the cursor, wrapping at the
// end of the list
func (s *Source) Next() string {

	if s.mode == Single {
		return s.files[0]
	}

	i := s.index.Load()
	s.index.Store((i + 1) % int64(len(s.files)))

	return s.files[i]
}

// Previous returns the path most recently returned by Next.  Before the first
// call to Next it returns the last file of the list.
func (s *Source) Previous() string {

	if s.mode == Single {
		return s.files[0]
	}

	n := int64(len(s.files))
	i := s.index.Load()

	return s.files[(i-1+n)%n]
}
