// Package resultlog records detection results, both to the log and to the
// plain text result file consumed by the analysis tooling.
package resultlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/swdee/go-rkiva"
)

// Writer appends result blocks to a result log.  It is safe for concurrent
// use and flushes after each block.
type Writer struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	blocks int
}

// Create truncates or creates the result log at path
func Create(path string) (*Writer, error) {

	f, err := os.Create(path)

	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "cannot open result output %s", path),
			rkiva.ErrConfig)
	}

	w := NewWriter(f)
	w.closer = f

	return w, nil
}

// NewWriter returns a Writer writing to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w: bufio.NewWriter(w),
	}
}

// WriteResult appends the block for one detection result of the given frame
// file
func (w *Writer) WriteResult(file string, res *rkiva.DetectResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return errors.New("result log is closed")
	}

	FormatBlock(w.w, file, res)
	w.blocks++

	return errors.Wrap(w.w.Flush(), "flushing result log")
}

// Blocks returns the number of blocks written
func (w *Writer) Blocks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.blocks
}

// Close flushes and closes the underlying file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return nil
	}

	err := w.w.Flush()
	w.w = nil

	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// FormatBlock writes a result block in the log format
//
//	File: <path>
//	Object count: <n>, detected
//	Object <i>: topLeft:[x,y], bottomRight:[x,y],objId: <id>, frameId: <id>, score: <s>, type: <t>(<NAME>)
//
// followed by a blank line.  Zero objects are reported as "not detect".
func FormatBlock(w io.Writer, file string, res *rkiva.DetectResult) {

	fmt.Fprintf(w, "File: %s\n", file)

	if res.Count() > 0 {
		fmt.Fprintf(w, "Object count: %d, detected\n", res.Count())
	} else {
		fmt.Fprintf(w, "Object count: %d  not detect\n", res.Count())
	}

	for i, obj := range res.Objects {
		fmt.Fprintf(w, "Object %d: %s\n", i, FormatObject(obj))
	}

	fmt.Fprint(w, "\n")
}

// FormatObject returns the per object text used in both the result log and
// the process log
func FormatObject(obj rkiva.ObjectInfo) string {
	return fmt.Sprintf("topLeft:[%d,%d], bottomRight:[%d,%d],objId: %d, frameId: %d, score: %d, type: %d(%s)",
		obj.Rect.TopLeft.X, obj.Rect.TopLeft.Y,
		obj.Rect.BottomRight.X, obj.Rect.BottomRight.Y,
		obj.ObjID, obj.FrameID, obj.Score, int(obj.Type), obj.Type.String())
}
