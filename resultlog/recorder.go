package resultlog

import (
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/logger"
	"go.uber.org/zap"
)

// FileTracker reports the frame file most recently submitted to the engine
type FileTracker interface {
	Previous() string
}

// Recorder is the engine's detection result handler
type Recorder struct {
	files FileTracker
	out   *Writer
	log   *zap.SugaredLogger
}

// NewRecorder returns a Recorder.  out may be nil in which case results are
// only logged.
func NewRecorder(files FileTracker, out *Writer, log *zap.SugaredLogger) *Recorder {

	if log == nil {
		log = logger.Component("result")
	}

	return &Recorder{
		files: files,
		out:   out,
		log:   log,
	}
}

// HandleResult is called on the engine goroutine for each processed frame.
// The result is attributed to the previously submitted file.  This holds only
// while the engine delivers a frame's result before releasing it, otherwise
// the pump may already have moved on to the next file.
func (r *Recorder) HandleResult(res *rkiva.DetectResult, status rkiva.ExecuteStatus) {

	if res == nil {
		res = &rkiva.DetectResult{}
	}

	r.log.Infow("detect result", logger.FieldObjects, res.Count(),
		logger.FieldStatus, status.String())

	if r.out == nil {
		return
	}

	file := r.files.Previous()

	for i, obj := range res.Objects {
		r.log.Infof("Object %d: %s", i, FormatObject(obj))
	}

	if err := r.out.WriteResult(file, res); err != nil {
		r.log.Errorw("writing result log", logger.FieldFile, file, logger.FieldError, err)
	}
}

// Handler returns HandleResult as an rkiva.ResultHandler
func (r *Recorder) Handler() rkiva.ResultHandler {
	return r.HandleResult
}
