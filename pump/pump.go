// Package pump implements the paced frame submission loop.  A single
// goroutine loads a frame, pushes it to the detection engine, waits for the
// engine to release it and then sleeps out the rest of the frame period, so
// exactly one frame is ever in flight.
package pump

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/logger"
	"go.uber.org/zap"
)

// Source yields the path of the next frame file
type Source interface {
	Next() string
}

// Engine accepts frames for detection.  It must eventually signal release of
// every accepted frame.
type Engine interface {
	PushFrame(img *rkiva.Image) error
}

// BlockPool hands out frame buffers
type BlockPool interface {
	Get() (rkiva.Block, error)
	Put(b rkiva.Block) error
	Close() error
}

// PoolOpener creates a pool of count blocks of blockSize bytes
type PoolOpener func(blockSize, count int) (BlockPool, error)

// Config of the pump
type Config struct {
	Width     uint32
	Height    uint32
	Format    rkiva.ImageFormat
	Transform rkiva.TransformMode
	// FrameRate is the target number of frames per second
	FrameRate uint32
	// LoopCount is the number of frames to submit, negative runs until quit
	LoopCount int
}

// Period returns the target time per frame, truncated to whole milliseconds
func (c Config) Period() time.Duration {

	if c.FrameRate == 0 {
		return 0
	}

	return time.Duration(1000/c.FrameRate) * time.Millisecond
}

// FrameSize returns the buffer size in bytes for one frame
func (c Config) FrameSize() int {
	return c.Format.FrameSize(c.Width, c.Height)
}

// Option configures a Pump
type Option func(*Pump)

// WithClock replaces the wall clock, used by tests
func WithClock(c Clock) Option {
	return func(p *Pump) {
		p.clock = c
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Pump) {
		p.log = l
	}
}

// Pump submits frames from a Source to an Engine at a fixed rate
type Pump struct {
	cfg      Config
	src      Source
	engine   Engine
	openPool PoolOpener
	state    *State
	clock    Clock
	log      *zap.SugaredLogger
	phase    atomic.Int32
	frameID  uint32
	stats    *stats
	run      sync.Once
}

// New creates a Pump.  The engine's release callback must call
// state.Release.
func New(cfg Config, src Source, engine Engine, openPool PoolOpener,
	state *State, opts ...Option) *Pump {

	p := &Pump{
		cfg:      cfg,
		src:      src,
		engine:   engine,
		openPool: openPool,
		state:    state,
		clock:    realClock{},
		log:      logger.Component("pump"),
		stats:    newStats(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Phase returns the current life cycle phase
func (p *Pump) Phase() Phase {
	return Phase(p.phase.Load())
}

func (p *Pump) setPhase(ph Phase) {
	p.phase.Store(int32(ph))
	p.log.Debugw("pump phase", logger.FieldPhase, ph.String())
}

// Stats returns a snapshot of the run statistics
func (p *Pump) Stats() Stats {
	return p.stats.snapshot()
}

// Run executes the submission loop until the loop count is reached, quit is
// requested or a frame is rejected.  It returns the failure recorded in the
// shared state.  Run may only be called once.
func (p *Pump) Run() error {

	ran := false

	p.run.Do(func() {
		ran = true
		p.runOnce()
	})

	if !ran {
		return errors.New("pump has already run")
	}

	return p.state.Err()
}

func (p *Pump) runOnce() {

	defer p.setPhase(Stopped)

	// one block sized for a single frame, reused for every submission
	pool, err := p.openPool(p.cfg.FrameSize(), 1)

	if err != nil {
		p.fail(errors.Mark(errors.Wrapf(err, "creating frame pool of %d bytes",
			p.cfg.FrameSize()), rkiva.ErrResource))
		return
	}

	blk, err := pool.Get()

	if err != nil {
		p.fail(errors.Mark(errors.Wrap(err, "acquiring frame block"), rkiva.ErrResource))

		if cerr := pool.Close(); cerr != nil {
			p.log.Warnw("closing frame pool", logger.FieldError, cerr)
		}

		return
	}

	p.setPhase(Running)
	p.log.Infow("frame pump started", "loop_count", p.cfg.LoopCount,
		"period_ms", p.cfg.Period().Milliseconds(), logger.FieldBytes, p.cfg.FrameSize())

	p.loop(blk)

	p.setPhase(Draining)

	if err := pool.Put(blk); err != nil {
		p.log.Warnw("releasing frame block", logger.FieldError, err)
	}

	if err := pool.Close(); err != nil {
		p.log.Warnw("closing frame pool", logger.FieldError, err)
	}

	st := p.stats.snapshot()
	p.log.Infow("frame pump stopped",
		"frames", st.Frames,
		"recovered", st.Recovered,
		"cost_mean_ms", st.MeanMS,
		"cost_stddev_ms", st.StdDevMS,
		"cost_min_ms", st.MinMS,
		"cost_max_ms", st.MaxMS,
	)
}

// loop is the Running phase
func (p *Pump) loop(blk rkiva.Block) {

	buf := blk.Bytes()
	period := p.cfg.Period().Milliseconds()

	for done := 0; ; done++ {

		if p.state.Quitting() {
			p.log.Debug("quit requested")
			return
		}

		if p.cfg.LoopCount >= 0 && done >= p.cfg.LoopCount {
			return
		}

		start := p.clock.Now()

		path := p.src.Next()
		p.frameID++

		p.log.Infow("loop", logger.FieldIteration, done, logger.FieldFile, path)

		if err := p.load(path, buf); err != nil {
			p.stats.recovered()
			p.log.Errorw("cannot read frame, using empty image as input",
				logger.FieldFile, path, logger.FieldError, err)
		}

		if err := blk.FlushCache(); err != nil {
			p.log.Warnw("flushing frame cache", logger.FieldError, err)
		}

		img := &rkiva.Image{
			Width:     p.cfg.Width,
			Height:    p.cfg.Height,
			Format:    p.cfg.Format,
			Transform: p.cfg.Transform,
			FrameID:   p.frameID,
			Fd:        blk.Fd(),
			Data:      buf,
		}

		if err := p.engine.PushFrame(img); err != nil {
			p.fail(errors.Mark(errors.Wrapf(err, "pushing frame %d from %s",
				p.frameID, path), rkiva.ErrSubmission))
			return
		}

		// one frame in flight, wait until the engine is done with the buffer
		p.state.await()

		cost := p.clock.Now().Sub(start).Milliseconds()

		var delay int64

		if period > cost {
			delay = period - cost
		}

		p.stats.add(float64(cost))
		p.log.Infow("iva cost time", logger.FieldFrameID, p.frameID,
			logger.FieldCostMS, cost, logger.FieldDelayMS, delay)

		if delay > 0 {
			p.clock.Sleep(time.Duration(delay) * time.Millisecond)
		}
	}
}

// load reads one frame from path into buf.  A short file is zero padded,
// on error the whole buffer is zeroed and the error returned.
func (p *Pump) load(path string, buf []byte) error {

	f, err := os.Open(path)

	if err != nil {
		clear(buf)
		return errors.Mark(errors.Wrap(err, "opening frame"), rkiva.ErrIO)
	}

	defer f.Close()

	n, err := io.ReadFull(f, buf)

	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// short file
		clear(buf[n:])
		p.log.Debugw("short frame file, zero padded", logger.FieldFile, path,
			logger.FieldBytes, n)
	default:
		clear(buf)
		return errors.Mark(errors.Wrap(err, "reading frame"), rkiva.ErrIO)
	}

	p.log.Debugw("input image loaded", logger.FieldFile, path, logger.FieldBytes, n)

	return nil
}

func (p *Pump) fail(err error) {
	p.log.Errorw("frame pump failed", logger.FieldError, err)
	p.state.Fail(err)
}
