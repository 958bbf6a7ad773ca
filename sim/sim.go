// Package sim provides an in-process stand in for the IVA engine.  It follows
// the same callback contract as the hardware engine, the detection result is
// delivered and then the frame is released, both on the engine's own
// goroutine after a configurable latency.  Detection is a simple luma
// threshold over a grid of cells which is enough to exercise the harness off
// device.
package sim

import (
	"sync"
	"time"

	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/logger"
	"go.uber.org/zap"
)

const (
	// DefaultLatency is the simulated inference time per frame
	DefaultLatency = 20 * time.Millisecond
	// DefaultThreshold is the mean cell luma above which an object is reported
	DefaultThreshold = 128
	// MaxObjects matches ROCKIVA_MAX_OBJ_NUM
	MaxObjects = 128
)

// Option configures the Engine
type Option func(*Engine)

// WithLatency sets the time taken to process each frame
func WithLatency(d time.Duration) Option {
	return func(e *Engine) {
		e.latency = d
	}
}

// WithRejectAfter makes PushFrame fail once n frames have been accepted,
// zero never rejects
func WithRejectAfter(n int) Option {
	return func(e *Engine) {
		e.rejectAfter = n
	}
}

// WithGrid sets the number of detection cells across and down the frame
func WithGrid(cols, rows int) Option {
	return func(e *Engine) {
		if cols > 0 && rows > 0 {
			e.cols, e.rows = cols, rows
		}
	}
}

// WithThreshold sets the mean luma a cell must exceed to be reported
func WithThreshold(luma uint8) Option {
	return func(e *Engine) {
		e.threshold = luma
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// Engine is the simulated detection engine
type Engine struct {
	cfg         rkiva.Config
	onResult    rkiva.ResultHandler
	onRelease   rkiva.ReleaseHandler
	latency     time.Duration
	rejectAfter int
	cols        int
	rows        int
	threshold   uint8
	log         *zap.SugaredLogger

	mu       sync.Mutex
	accepted int
	inFlight bool
	closed   bool
	nextObj  int
	// frames carries the single frame in flight to the engine goroutine
	frames chan *rkiva.Image
	wg     sync.WaitGroup
}

// New starts a simulated engine
func New(cfg rkiva.Config, onResult rkiva.ResultHandler, onRelease rkiva.ReleaseHandler,
	opts ...Option) (*Engine, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		onResult:  onResult,
		onRelease: onRelease,
		latency:   DefaultLatency,
		cols:      4,
		rows:      3,
		threshold: DefaultThreshold,
		log:       logger.Component("sim"),
		frames:    make(chan *rkiva.Image, 1),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.wg.Add(1)
	go e.process()

	e.log.Infow("simulated engine started", "latency", e.latency,
		"width", cfg.Width, "height", cfg.Height)

	return e, nil
}

// PushFrame queues a frame for detection.  Like ROCKIVA_PushFrame it fails
// with a negative code instead of blocking.
func (e *Engine) PushFrame(img *rkiva.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return rkiva.NewCallError("ROCKIVA_PushFrame", rkiva.ErrInvalidHandle)
	}

	if img == nil {
		return rkiva.NewCallError("ROCKIVA_PushFrame", rkiva.ErrNullPtr)
	}

	if img.Width != e.cfg.Width || img.Height != e.cfg.Height ||
		img.Format != e.cfg.Format || len(img.Data) < e.cfg.FrameSize() {

		e.log.Errorw("frame does not match engine configuration",
			logger.FieldFrameID, img.FrameID, "width", img.Width, "height", img.Height,
			logger.FieldBytes, len(img.Data))

		return rkiva.NewCallError("ROCKIVA_PushFrame", rkiva.ErrFail)
	}

	if e.rejectAfter > 0 && e.accepted >= e.rejectAfter {
		return rkiva.NewCallError("ROCKIVA_PushFrame", rkiva.ErrBufferFull)
	}

	if e.inFlight {
		return rkiva.NewCallError("ROCKIVA_PushFrame", rkiva.ErrBufferFull)
	}

	e.inFlight = true
	e.accepted++
	e.frames <- img

	return nil
}

// Accepted returns the number of frames accepted
func (e *Engine) Accepted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accepted
}

// Close stops the engine after the queued frame has been processed
func (e *Engine) Close() error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return nil
	}

	e.closed = true
	close(e.frames)
	e.mu.Unlock()

	e.wg.Wait()

	return nil
}

// process runs on the engine goroutine and delivers the callbacks
func (e *Engine) process() {
	defer e.wg.Done()

	for img := range e.frames {

		if e.latency > 0 {
			time.Sleep(e.latency)
		}

		res := e.detect(img)

		if e.onResult != nil {
			e.onResult(res, rkiva.StatusSuccess)
		}

		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()

		if e.onRelease != nil {
			e.onRelease([]rkiva.ReleasedFrame{{FrameID: img.FrameID, Fd: img.Fd}})
		}
	}
}

// detect reports every grid cell inside the detection area whose mean luma
// exceeds the threshold
func (e *Engine) detect(img *rkiva.Image) *rkiva.DetectResult {

	res := &rkiva.DetectResult{
		FrameID: int(img.FrameID),
	}

	x0, y0, dw, dh := e.cfg.DetectArea()
	cellW := int(dw) / e.cols
	cellH := int(dh) / e.rows

	if cellW == 0 || cellH == 0 {
		return res
	}

	stride := int(img.Width)

	for r := 0; r < e.rows; r++ {
		for c := 0; c < e.cols; c++ {

			left := int(x0) + c*cellW
			top := int(y0) + r*cellH

			if left+cellW > int(img.Width) || top+cellH > int(img.Height) {
				continue
			}

			mean := meanLuma(img.Data, stride, left, top, cellW, cellH)

			if mean <= int(e.threshold) {
				continue
			}

			e.nextObj++

			res.Objects = append(res.Objects, rkiva.ObjectInfo{
				Rect: rkiva.Rect{
					TopLeft:     rkiva.Point{X: left, Y: top},
					BottomRight: rkiva.Point{X: left + cellW, Y: top + cellH},
				},
				ObjID:   e.nextObj,
				FrameID: int(img.FrameID),
				Score:   mean * 100 / 255,
				Type:    rkiva.ObjectPerson,
			})

			if len(res.Objects) == MaxObjects {
				return res
			}
		}
	}

	return res
}

// meanLuma averages the Y plane over the given cell
func meanLuma(y []byte, stride, left, top, w, h int) int {

	var sum int

	for row := top; row < top+h; row++ {
		line := y[row*stride+left : row*stride+left+w]

		for _, v := range line {
			sum += int(v)
		}
	}

	return sum / (w * h)
}
