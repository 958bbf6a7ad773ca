package render

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/resultlog"
	"gocv.io/x/gocv"
)

func person(id, score int) rkiva.ObjectInfo {
	return rkiva.ObjectInfo{
		Rect: rkiva.Rect{
			TopLeft:     rkiva.Point{X: 2 + id, Y: 2},
			BottomRight: rkiva.Point{X: 10 + id, Y: 10},
		},
		ObjID: id,
		Score: score,
		Type:  rkiva.ObjectPerson,
	}
}

func TestColors(t *testing.T) {
	assert.Equal(t, classColors[1], TypeColor(rkiva.ObjectPerson))
	assert.Equal(t, IDColor(3), IDColor(3+len(classColors)))
	assert.Equal(t, IDColor(3), IDColor(-3))
}

func TestTrail(t *testing.T) {
	trail := NewTrail(2)

	trail.Add([]rkiva.ObjectInfo{person(1, 90)})
	trail.Add([]rkiva.ObjectInfo{person(1, 90)})
	trail.Add([]rkiva.ObjectInfo{person(1, 90), person(2, 50)})

	assert.Len(t, trail.Points(1), 2)
	assert.Len(t, trail.Points(2), 1)
	assert.Empty(t, trail.Points(7))

	trail.Reset()
	assert.Empty(t, trail.Points(1))
}

func TestLabelLayout(t *testing.T) {
	font := DefaultFont()
	sz := font.Measure("PERSON 90")

	box := image.Rect(100, 200, 300, 400)

	bg, pos := font.layout("PERSON 90", box, 2)
	assert.Equal(t, 99, bg.Min.X)
	assert.Equal(t, 200, bg.Max.Y)
	assert.Equal(t, sz, bg.Size())
	assert.Equal(t, bg.Min.X+font.Pad.Left, pos.X)

	font.Align = AlignRight
	bg, _ = font.layout("PERSON 90", box, 2)
	assert.Equal(t, 301, bg.Max.X)

	// box on the top edge keeps its label inside the image
	bg, _ = font.layout("PERSON 90", image.Rect(10, 0, 50, 40), 2)
	assert.Equal(t, 0, bg.Min.Y)
}

func TestNV12ToBGR(t *testing.T) {
	// white frame, Y full and neutral chroma
	data := make([]byte, 16*8*3/2)

	for i := 0; i < 16*8; i++ {
		data[i] = 255
	}

	for i := 16 * 8; i < len(data); i++ {
		data[i] = 128
	}

	img, err := NV12ToBGR(data, 16, 8)
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, 16, img.Cols())
	assert.Equal(t, 8, img.Rows())
	assert.Equal(t, 3, img.Channels())

	v := img.GetVecbAt(4, 4)
	assert.InDelta(t, 255, v[0], 2)

	_, err = NV12ToBGR(data[:10], 16, 8)
	assert.Error(t, err)
}

func TestAnnotateLog(t *testing.T) {
	dir := t.TempDir()
	frame := filepath.Join(dir, "frame_1.yuv")
	require.NoError(t, os.WriteFile(frame, make([]byte, 32*16*3/2), 0o644))

	logPath := filepath.Join(dir, "run_result.txt")
	w, err := resultlog.Create(logPath)
	require.NoError(t, err)
	require.NoError(t, w.WriteResult(frame, &rkiva.DetectResult{
		Objects: []rkiva.ObjectInfo{person(1, 80)},
	}))
	require.NoError(t, w.WriteResult(filepath.Join(dir, "missing.yuv"), &rkiva.DetectResult{}))
	require.NoError(t, w.Close())

	opts := DefaultAnnotateOptions()
	opts.OutDir = filepath.Join(dir, "out")
	opts.Width = 32
	opts.Height = 16
	opts.Tracked = true

	n, err := AnnotateLog(logPath, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	img := gocv.IMRead(filepath.Join(opts.OutDir, "frame_1.jpg"), gocv.IMReadColor)
	defer img.Close()
	assert.False(t, img.Empty())
	assert.Equal(t, 32, img.Cols())
}
