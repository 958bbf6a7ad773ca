package pump

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/framesource"
)

// fakeClock advances only when told to
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type pushed struct {
	id   uint32
	data []byte
}

// fakeEngine takes latency of clock time per frame and releases each frame
// from its own goroutine
type fakeEngine struct {
	mu       sync.Mutex
	clock    *fakeClock
	state    *State
	latency  time.Duration
	rejectAt int
	frames   []pushed
}

func (e *fakeEngine) PushFrame(img *rkiva.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rejectAt > 0 && len(e.frames)+1 == e.rejectAt {
		return rkiva.NewCallError("ROCKIVA_PushFrame", rkiva.ErrBufferFull)
	}

	e.frames = append(e.frames, pushed{
		id:   img.FrameID,
		data: bytes.Clone(img.Data),
	})

	go func() {
		e.clock.Advance(e.latency)
		e.state.Release()
	}()

	return nil
}

func (e *fakeEngine) Frames() []pushed {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]pushed(nil), e.frames...)
}

func heapOpener(blockSize, count int) (BlockPool, error) {
	return rkiva.NewHeapPool(blockSize, count)
}

// small 4x2 NV12 frame of 12 bytes
var testConfig = Config{
	Width:     4,
	Height:    2,
	Format:    rkiva.FormatYUV420SPNV12,
	FrameRate: 10,
}

func newTestPump(t *testing.T, cfg Config, src Source, latency time.Duration) (*Pump, *fakeEngine, *fakeClock, *State) {
	t.Helper()

	clock := newFakeClock()
	state := NewState(nil)
	engine := &fakeEngine{clock: clock, state: state, latency: latency}

	p := New(cfg, src, engine, heapOpener, state, WithClock(clock))

	return p, engine, clock, state
}

func writeFrame(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

func TestConfigPeriod(t *testing.T) {
	tests := []struct {
		rate uint32
		want time.Duration
	}{
		{10, 100 * time.Millisecond},
		{30, 33 * time.Millisecond},
		{1, time.Second},
		{2000, 0},
		{0, 0},
	}

	for _, tt := range tests {
		cfg := Config{FrameRate: tt.rate}
		assert.Equal(t, tt.want, cfg.Period(), "rate %d", tt.rate)
	}
}

func TestPacingFastEngine(t *testing.T) {
	path := writeFrame(t, t.TempDir(), "f.yuv", make([]byte, 12))

	cfg := testConfig
	cfg.LoopCount = 4

	p, engine, clock, state := newTestPump(t, cfg, framesource.NewSingle(path), 20*time.Millisecond)

	require.NoError(t, p.Run())
	assert.Equal(t, 0, state.ExitCode())
	assert.Len(t, engine.Frames(), 4)

	// each iteration sleeps out the rest of the 100ms period
	sleeps := clock.Sleeps()
	require.Len(t, sleeps, 4)

	for _, d := range sleeps {
		assert.Equal(t, 80*time.Millisecond, d)
	}

	st := p.Stats()
	assert.Equal(t, 4, st.Frames)
	assert.InDelta(t, 20, st.MeanMS, 0.001)
	assert.InDelta(t, 0, st.StdDevMS, 0.001)
	assert.Equal(t, Stopped, p.Phase())
}

func TestPacingSlowEngine(t *testing.T) {
	path := writeFrame(t, t.TempDir(), "f.yuv", make([]byte, 12))

	cfg := testConfig
	cfg.LoopCount = 3

	p, engine, clock, _ := newTestPump(t, cfg, framesource.NewSingle(path), 150*time.Millisecond)

	require.NoError(t, p.Run())
	assert.Len(t, engine.Frames(), 3)

	// engine slower than the period so there is nothing to sleep
	assert.Empty(t, clock.Sleeps())
	assert.InDelta(t, 150, p.Stats().MinMS, 0.001)
}

func TestSingleFileIdenticalContent(t *testing.T) {
	content := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	path := writeFrame(t, t.TempDir(), "f.yuv", content)

	cfg := testConfig
	cfg.LoopCount = 5

	p, engine, _, _ := newTestPump(t, cfg, framesource.NewSingle(path), time.Millisecond)
	require.NoError(t, p.Run())

	frames := engine.Frames()
	require.Len(t, frames, 5)

	for i, f := range frames {
		assert.Equal(t, content, f.data)
		assert.Equal(t, uint32(i+1), f.id)
	}
}

func TestFatalSubmission(t *testing.T) {
	path := writeFrame(t, t.TempDir(), "f.yuv", make([]byte, 12))

	cfg := testConfig
	cfg.LoopCount = -1

	p, engine, _, state := newTestPump(t, cfg, framesource.NewSingle(path), time.Millisecond)
	engine.rejectAt = 3

	err := p.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, rkiva.ErrSubmission))

	var callErr *rkiva.CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, rkiva.ErrBufferFull, callErr.Code)

	// two frames accepted, the third rejected, no further iterations
	assert.Len(t, engine.Frames(), 2)
	assert.True(t, state.Quitting())
	assert.Equal(t, 1, state.ExitCode())

	// the first failure is kept
	state.Fail(errors.New("later"))
	assert.Same(t, err, state.Err())

	// and Run can't be repeated
	assert.Error(t, p.Run())
	assert.Len(t, engine.Frames(), 2)
}

func TestMissingFileZeroFilled(t *testing.T) {
	dir := t.TempDir()
	full := writeFrame(t, dir, "a.yuv", bytes.Repeat([]byte{0xff}, 12))

	src, err := framesource.NewDirectory([]string{full, filepath.Join(dir, "gone.yuv")})
	require.NoError(t, err)

	cfg := testConfig
	cfg.LoopCount = 2

	p, engine, _, _ := newTestPump(t, cfg, src, time.Millisecond)
	require.NoError(t, p.Run())

	frames := engine.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 12), frames[0].data)
	assert.Equal(t, make([]byte, 12), frames[1].data)
	assert.Equal(t, 1, p.Stats().Recovered)
}

func TestShortFileZeroPadded(t *testing.T) {
	dir := t.TempDir()
	full := writeFrame(t, dir, "a.yuv", bytes.Repeat([]byte{0xff}, 12))
	short := writeFrame(t, dir, "b.yuv", []byte{7, 7, 7})

	src, err := framesource.NewDirectory([]string{full, short})
	require.NoError(t, err)

	cfg := testConfig
	cfg.LoopCount = 2

	p, engine, _, _ := newTestPump(t, cfg, src, time.Millisecond)
	require.NoError(t, p.Run())

	frames := engine.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, []byte{7, 7, 7, 0, 0, 0, 0, 0, 0, 0, 0, 0}, frames[1].data)
	assert.Equal(t, 0, p.Stats().Recovered)
}

func TestQuitBeforeRun(t *testing.T) {
	path := writeFrame(t, t.TempDir(), "f.yuv", make([]byte, 12))

	cfg := testConfig
	cfg.LoopCount = -1

	p, engine, _, state := newTestPump(t, cfg, framesource.NewSingle(path), time.Millisecond)
	state.Quit()

	require.NoError(t, p.Run())
	assert.Empty(t, engine.Frames())
	assert.Equal(t, 0, state.ExitCode())
}

func TestPoolFailure(t *testing.T) {
	state := NewState(nil)
	engine := &fakeEngine{clock: newFakeClock(), state: state}

	failing := func(blockSize, count int) (BlockPool, error) {
		return nil, errors.New("no memory")
	}

	p := New(testConfig, framesource.NewSingle("x.yuv"), engine, failing, state)

	err := p.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, rkiva.ErrResource))
	assert.Empty(t, engine.Frames())
	assert.Equal(t, Stopped, p.Phase())
}

func TestPoolSizedForOneFrame(t *testing.T) {
	var gotSize, gotCount int

	opener := func(blockSize, count int) (BlockPool, error) {
		gotSize, gotCount = blockSize, count
		return rkiva.NewHeapPool(blockSize, count)
	}

	cfg := Config{Width: 640, Height: 360, Format: rkiva.FormatYUV420SPNV12, FrameRate: 10}

	state := NewState(nil)
	p := New(cfg, framesource.NewSingle("x.yuv"), &fakeEngine{clock: newFakeClock(), state: state},
		opener, state, WithClock(newFakeClock()))

	require.NoError(t, p.Run())
	assert.Equal(t, 640*360*3/2, gotSize)
	assert.Equal(t, 1, gotCount)
}
