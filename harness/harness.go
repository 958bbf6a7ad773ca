// Package harness wires the frame source, the frame pump, the detection
// engine and the result log into a single test run.
package harness

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/logger"
	"github.com/swdee/go-rkiva/pump"
	"github.com/swdee/go-rkiva/resultlog"
	"github.com/swdee/go-rkiva/sim"
	"go.uber.org/zap"
)

// engine is the detection engine as used by the harness
type engine interface {
	pump.Engine
	Close() error
}

// Option configures a Harness
type Option func(*Harness)

// WithSignals replaces the process signal channel, used by tests
func WithSignals(ch <-chan os.Signal) Option {
	return func(h *Harness) {
		h.signals = ch
	}
}

// WithLogger replaces the harness logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(h *Harness) {
		h.log = log
	}
}

// WithSimOptions passes extra options to the simulated engine
func WithSimOptions(opts ...sim.Option) Option {
	return func(h *Harness) {
		h.simOpts = append(h.simOpts, opts...)
	}
}

// Harness runs one detection test
type Harness struct {
	opts    Options
	runID   string
	log     *zap.SugaredLogger
	signals <-chan os.Signal
	simOpts []sim.Option
	stats   pump.Stats
}

// New returns a Harness for the given options
func New(opts Options, hopts ...Option) *Harness {

	runID := uuid.NewString()

	h := &Harness{
		opts:  opts,
		runID: runID,
	}

	for _, o := range hopts {
		o(h)
	}

	if h.log == nil {
		h.log = logger.Component("harness")
	}

	h.log = h.log.With(logger.FieldRunID, runID)

	return h
}

// RunID returns the unique id of this run
func (h *Harness) RunID() string {
	return h.runID
}

// Stats returns the frame pump statistics once Run has returned
func (h *Harness) Stats() pump.Stats {
	return h.stats
}

// Run executes the test and returns the process exit code.  Interrupting the
// run with SIGINT or SIGTERM is a normal exit with code 0 and an error marked
// rkiva.ErrInterrupted.
func Run(opts Options) (int, error) {
	return New(opts).Run()
}

// Run executes the test and returns the process exit code
func (h *Harness) Run() (int, error) {

	// trap signals before the engine loads so an early interrupt still
	// tears it down
	signals := h.signals

	if signals == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		signals = ch
	}

	if err := h.pinCPU(); err != nil {
		h.log.Errorw("cpu affinity", logger.FieldError, err)
		return 1, err
	}

	plan, err := h.opts.Resolve()

	if err != nil {
		h.log.Errorw("invalid options", logger.FieldError, err)
		return 1, err
	}

	h.log.Infow("initial start",
		"mode", plan.Source.Mode().String(),
		"files", plan.Source.Len(),
		"loop_count", plan.Pump.LoopCount,
		"engine", h.opts.Engine,
		"model", plan.Engine.ModelFile(),
	)

	var out *resultlog.Writer

	if h.opts.ResultOutput != "" {
		out, err = resultlog.Create(h.opts.ResultOutput)

		if err != nil {
			h.log.Errorw("failed to open result output file", logger.FieldError, err)
			return 1, err
		}

		defer func() {
			if err := out.Close(); err != nil {
				h.log.Warnw("closing result output", logger.FieldError, err)
			}
		}()

		h.log.Infow("result output file opened", logger.FieldFile, h.opts.ResultOutput)
	}

	state := pump.NewState(h.log)
	recorder := resultlog.NewRecorder(plan.Source, out, logger.Component("result"))

	onRelease := func(frames []rkiva.ReleasedFrame) {
		h.log.Debugw("release iva frame", "count", len(frames))
		state.Release()
	}

	eng, opener, teardown, err := h.openEngine(plan.Engine, recorder.HandleResult, onRelease)

	if err != nil {
		h.log.Errorw("engine create failure", logger.FieldError, err)
		return 1, err
	}

	defer teardown()

	p := pump.New(plan.Pump, plan.Source, eng, opener, state,
		pump.WithLogger(logger.Component("pump").With(logger.FieldRunID, h.runID)))

	var interrupted os.Signal

	// a signal received during startup stops the pump before its first frame
	select {
	case sig := <-signals:
		interrupted = sig
		h.log.Infow("signal received during startup, stopping", "signal", sig.String())
		state.Quit()
	default:
	}

	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = p.Run()
	}()

	h.log.Info("initial finish")

	if interrupted == nil {
		select {
		case <-done:
		case sig := <-signals:
			interrupted = sig
			h.log.Infow("signal received, stopping", "signal", sig.String())
			state.Quit()
			<-done
		}
	} else {
		<-done
	}

	h.stats = p.Stats()

	if err := eng.Close(); err != nil {
		h.log.Warnw("closing engine", logger.FieldError, err)
	} else {
		h.log.Info("engine closed")
	}

	h.logMetrics()

	if err := state.Err(); err != nil {
		return state.ExitCode(), err
	}

	h.log.Infow("exit", "frames", h.stats.Frames)

	if interrupted != nil {
		return 0, errors.Mark(errors.Newf("interrupted by %s", interrupted.String()),
			rkiva.ErrInterrupted)
	}

	return 0, nil
}

// openEngine creates the selected engine along with the matching frame
// buffer pool.  teardown is always safe to call.
func (h *Harness) openEngine(cfg rkiva.Config, onResult rkiva.ResultHandler,
	onRelease rkiva.ReleaseHandler) (engine, pump.PoolOpener, func(), error) {

	switch strings.ToLower(h.opts.Engine) {

	case EngineRockIVA:
		if err := rkiva.SysInit(); err != nil {
			return nil, nil, func() {}, err
		}

		teardown := func() {
			if err := rkiva.SysExit(); err != nil {
				h.log.Warnw("system exit", logger.FieldError, err)
			}
		}

		iva, err := rkiva.NewIVA(cfg, onResult, onRelease)

		if err != nil {
			teardown()
			return nil, nil, func() {}, err
		}

		opener := func(blockSize, count int) (pump.BlockPool, error) {
			pool, err := rkiva.NewMBPool(blockSize, count)

			if err != nil {
				return nil, err
			}

			return pool, nil
		}

		return iva, opener, teardown, nil

	default:
		opts := append([]sim.Option{
			sim.WithLatency(h.opts.SimLatency),
			sim.WithLogger(logger.Component("sim").With(logger.FieldRunID, h.runID)),
		}, h.simOpts...)

		eng, err := sim.New(cfg, onResult, onRelease, opts...)

		if err != nil {
			return nil, nil, func() {}, errors.Mark(err, rkiva.ErrResource)
		}

		opener := func(blockSize, count int) (pump.BlockPool, error) {
			pool, err := rkiva.NewHeapPool(blockSize, count)

			if err != nil {
				return nil, err
			}

			return pool, nil
		}

		return eng, opener, func() {}, nil
	}
}

// pinCPU applies the --platform and --cpu_cores options
func (h *Harness) pinCPU() error {

	if h.opts.Platform == "" {
		return nil
	}

	ct, err := rkiva.ParseCoreType(h.opts.CPUCores)

	if err != nil {
		return err
	}

	if err := rkiva.SetCPUAffinityByPlatform(h.opts.Platform, ct); err != nil {
		return err
	}

	h.log.Infow("cpu affinity set", "platform", h.opts.Platform, "cores", h.opts.CPUCores)

	return nil
}
