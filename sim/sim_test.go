package sim

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-rkiva"
)

// collector records callbacks in the order they arrive
type collector struct {
	mu       sync.Mutex
	events   []string
	results  []*rkiva.DetectResult
	released []rkiva.ReleasedFrame
	done     chan struct{}
}

func newCollector() *collector {
	return &collector{done: make(chan struct{}, 16)}
}

func (c *collector) onResult(res *rkiva.DetectResult, status rkiva.ExecuteStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "result")
	c.results = append(c.results, res)
}

func (c *collector) onRelease(frames []rkiva.ReleasedFrame) {
	c.mu.Lock()
	c.events = append(c.events, "release")
	c.released = append(c.released, frames...)
	c.mu.Unlock()
	c.done <- struct{}{}
}

func (c *collector) wait(t *testing.T) {
	t.Helper()

	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for release")
	}
}

func smallConfig() rkiva.Config {
	cfg := rkiva.DefaultConfig()
	cfg.Width = 16
	cfg.Height = 12
	return cfg
}

func frame(cfg rkiva.Config, id uint32) *rkiva.Image {
	return &rkiva.Image{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Format:  cfg.Format,
		FrameID: id,
		Fd:      -1,
		Data:    make([]byte, cfg.FrameSize()),
	}
}

func TestEmptyFrameHasNoObjects(t *testing.T) {
	cfg := smallConfig()
	c := newCollector()

	e, err := New(cfg, c.onResult, c.onRelease, WithLatency(0))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.PushFrame(frame(cfg, 1)))
	c.wait(t)

	c.mu.Lock()
	defer c.mu.Unlock()

	assert.Equal(t, []string{"result", "release"}, c.events)
	require.Len(t, c.results, 1)
	assert.Equal(t, 0, c.results[0].Count())
	assert.Equal(t, 1, c.results[0].FrameID)
	assert.Equal(t, []rkiva.ReleasedFrame{{FrameID: 1, Fd: -1}}, c.released)
}

func TestBrightCellDetected(t *testing.T) {
	cfg := smallConfig()
	c := newCollector()

	// 4x3 grid of 4x4 cells, light up the top left cell
	e, err := New(cfg, c.onResult, c.onRelease, WithLatency(0), WithGrid(4, 3))
	require.NoError(t, err)
	defer e.Close()

	img := frame(cfg, 5)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Data[y*16+x] = 255
		}
	}

	require.NoError(t, e.PushFrame(img))
	c.wait(t)

	c.mu.Lock()
	defer c.mu.Unlock()

	require.Len(t, c.results, 1)
	require.Equal(t, 1, c.results[0].Count())

	obj := c.results[0].Objects[0]
	assert.Equal(t, rkiva.Rect{TopLeft: rkiva.Point{X: 0, Y: 0},
		BottomRight: rkiva.Point{X: 4, Y: 4}}, obj.Rect)
	assert.Equal(t, 100, obj.Score)
	assert.Equal(t, 5, obj.FrameID)
	assert.Equal(t, rkiva.ObjectPerson, obj.Type)
}

func TestOneFrameInFlight(t *testing.T) {
	cfg := smallConfig()
	c := newCollector()

	e, err := New(cfg, c.onResult, c.onRelease, WithLatency(200*time.Millisecond))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.PushFrame(frame(cfg, 1)))

	// refused until the first frame is released
	err = e.PushFrame(frame(cfg, 2))

	var callErr *rkiva.CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, rkiva.ErrBufferFull, callErr.Code)
	assert.True(t, callErr.Negative())

	c.wait(t)
	assert.NoError(t, e.PushFrame(frame(cfg, 3)))
}

func TestRejectAfter(t *testing.T) {
	cfg := smallConfig()
	c := newCollector()

	e, err := New(cfg, c.onResult, c.onRelease, WithLatency(0), WithRejectAfter(1))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.PushFrame(frame(cfg, 1)))
	c.wait(t)

	assert.Error(t, e.PushFrame(frame(cfg, 2)))
	assert.Equal(t, 1, e.Accepted())
}

func TestMismatchedFrameRejected(t *testing.T) {
	cfg := smallConfig()

	e, err := New(cfg, nil, nil, WithLatency(0))
	require.NoError(t, err)
	defer e.Close()

	img := frame(cfg, 1)
	img.Width = 32

	assert.Error(t, e.PushFrame(img))

	img = frame(cfg, 1)
	img.Data = img.Data[:10]

	assert.Error(t, e.PushFrame(img))
	assert.Error(t, e.PushFrame(nil))
}

func TestPushAfterClose(t *testing.T) {
	cfg := smallConfig()

	e, err := New(cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	err = e.PushFrame(frame(cfg, 1))

	var callErr *rkiva.CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, rkiva.ErrInvalidHandle, callErr.Code)
}

func TestInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.FrameRate = 0

	_, err := New(cfg, nil, nil)
	assert.True(t, errors.Is(err, rkiva.ErrConfig))
}
