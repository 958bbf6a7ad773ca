package analyze

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/resultlog"
)

func obj(score int, x0, y0, x1, y1 int) rkiva.ObjectInfo {
	return rkiva.ObjectInfo{
		Rect: rkiva.Rect{
			TopLeft:     rkiva.Point{X: x0, Y: y0},
			BottomRight: rkiva.Point{X: x1, Y: y1},
		},
		ObjID:   1,
		FrameID: 1,
		Score:   score,
		Type:    rkiva.ObjectPerson,
	}
}

// sampleLog writes a result log through the resultlog writer so the parser
// is tested against the real format
func sampleLog(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	w, err := resultlog.Create(path)
	require.NoError(t, err)

	results := []struct {
		file string
		objs []rkiva.ObjectInfo
	}{
		{"/data/frame_10.yuv", []rkiva.ObjectInfo{obj(85, 0, 0, 10, 10), obj(40, 50, 50, 60, 60)}},
		{"/data/frame_2.yuv", nil},
		{"/data/frame_1.yuv", []rkiva.ObjectInfo{obj(100, 100, 100, 120, 120)}},
		{"/data/frame_3.yuv", []rkiva.ObjectInfo{obj(5, 0, 0, 4, 4)}},
	}

	for _, r := range results {
		require.NoError(t, w.WriteResult(r.file, &rkiva.DetectResult{Objects: r.objs}))
	}

	require.NoError(t, w.Close())

	return path
}

func TestParse(t *testing.T) {
	log, err := ParseFile(sampleLog(t, t.TempDir(), "day_result.txt"))
	require.NoError(t, err)

	require.Len(t, log.Blocks, 4)
	assert.Equal(t, 4, log.FileLines)
	assert.Equal(t, "day", log.Base())
	assert.Equal(t, "Day", log.Label())

	first := log.Blocks[0]
	assert.Equal(t, "/data/frame_10.yuv", first.File)
	assert.Equal(t, 2, first.Count)
	require.Len(t, first.Objects, 2)
	assert.Equal(t, obj(40, 50, 50, 60, 60), first.Objects[1])

	assert.Equal(t, []int{85, 0, 100, 5}, log.Scores())
	assert.Equal(t, 3, log.Detected())

	assert.True(t, log.Blocks[1].NoDetection())
	assert.False(t, log.Blocks[1].Detected())
	assert.Empty(t, log.Blocks[1].Objects)
}

func TestParseUnknownType(t *testing.T) {
	text := "File: a.yuv\nObject count: 1, detected\n" +
		"Object 0: topLeft:[1,2], bottomRight:[3,4],objId: 5, frameId: 6, score: 7, type: 42(UNKNOWN)\n\n"

	log, err := Parse(strings.NewReader(text), "x_result.txt")
	require.NoError(t, err)
	require.Len(t, log.Blocks, 1)
	require.Len(t, log.Blocks[0].Objects, 1)
	assert.Equal(t, rkiva.ObjectType(42), log.Blocks[0].Objects[0].Type)
}

func TestSummarize(t *testing.T) {
	log, err := ParseFile(sampleLog(t, t.TempDir(), "day_result.txt"))
	require.NoError(t, err)

	sum := Summarize(log, 3)

	assert.Equal(t, 4, sum.Files)
	assert.InDelta(t, 0.75, sum.Rate, 1e-9)
	assert.InDelta(t, 47.5, sum.Mean, 1e-9)
	assert.Equal(t, 0.0, sum.Min)
	assert.Equal(t, 100.0, sum.Max)

	// 0 and 5 in the first bin, 85 in 80-90 and 100 in the closed last bin
	assert.Equal(t, []int{2, 0, 0, 0, 0, 0, 0, 0, 1, 1}, sum.Histogram)
	assert.InDelta(t, 50, sum.Percent(0), 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	log, err := Parse(strings.NewReader(""), "empty_result.txt")
	require.NoError(t, err)

	sum := Summarize(log, 0)
	assert.True(t, sum.Empty)
	assert.Zero(t, sum.Rate)
}

func TestBinIndex(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{-3, 0}, {0, 0}, {9, 0}, {10, 1}, {55, 5}, {99, 9}, {100, 9}, {140, 9},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BinIndex(tt.score), "score %d", tt.score)
	}

	assert.Equal(t, "00-10", RangeKey(0))
	assert.Equal(t, "90-100", RangeKey(9))
}

func TestNaturalLess(t *testing.T) {
	names := []string{"frame_10.yuv", "frame_2.yuv", "frame_1.yuv", "a.yuv"}

	got := append([]string(nil), names...)
	for i := 1; i < len(got); i++ {
		for j := i; j > 0 && NaturalLess(got[j], got[j-1]); j-- {
			got[j], got[j-1] = got[j-1], got[j]
		}
	}

	assert.Equal(t, []string{"a.yuv", "frame_1.yuv", "frame_2.yuv", "frame_10.yuv"}, got)
}

func TestWriteBuckets(t *testing.T) {
	out := t.TempDir()

	log, err := ParseFile(sampleLog(t, t.TempDir(), "day_result.txt"))
	require.NoError(t, err)

	paths, err := WriteBuckets(out, log, Summarize(log, 3))
	require.NoError(t, err)
	assert.Len(t, paths, Bins)

	data, err := os.ReadFile(filepath.Join(out, "day_files_scores00-10_cnt-2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "/data/frame_2.yuv score:0\n/data/frame_3.yuv score:5\n", string(data))

	data, err = os.ReadFile(filepath.Join(out, "day_files_scores90-100_cnt-1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "/data/frame_1.yuv score:100\n", string(data))

	// empty ranges still get a file
	data, err = os.ReadFile(filepath.Join(out, "day_files_scores30-40_cnt-0.txt"))
	require.NoError(t, err)
	assert.Empty(t, data)

	path, err := WriteNoDetections(out, log)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "day_files_no_detections_total-1.txt"), path)
}

func TestROI(t *testing.T) {
	roi, err := ParseROI("0,0,100,0,100,100,0,100")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, roi.Area())

	inside := rkiva.Rect{TopLeft: rkiva.Point{X: 10, Y: 10}, BottomRight: rkiva.Point{X: 20, Y: 20}}
	half := rkiva.Rect{TopLeft: rkiva.Point{X: 90, Y: 0}, BottomRight: rkiva.Point{X: 110, Y: 10}}
	outside := rkiva.Rect{TopLeft: rkiva.Point{X: 200, Y: 200}, BottomRight: rkiva.Point{X: 210, Y: 210}}

	assert.InDelta(t, 1.0, roi.Overlap(inside), 1e-9)
	assert.InDelta(t, 0.5, roi.Overlap(half), 1e-9)
	assert.InDelta(t, 0.0, roi.Overlap(outside), 1e-9)

	log, err := ParseFile(sampleLog(t, t.TempDir(), "day_result.txt"))
	require.NoError(t, err)

	objects, frames := roi.Hits(log, 0.5)
	assert.Equal(t, 3, objects)
	assert.Equal(t, 2, frames)
}

func TestParseROIErrors(t *testing.T) {
	for _, s := range []string{"", "1,2,3,4", "1,2,3,4,5", "a,0,1,1,0,1", "0,0,1,1,2,2"} {
		_, err := ParseROI(s)
		assert.Error(t, err, s)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	var buf bytes.Buffer

	err := Run(Options{
		Logs:   []string{sampleLog(t, dir, "day_result.txt"), filepath.Join(dir, "missing_result.txt")},
		OutDir: out,
		ROI:    "0,0,100,0,100,100,0,100",
		ROIMin: 0.5,
	}, &buf)
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "Total detections across all logs: 3")
	assert.Contains(t, text, "file does not exist")
	assert.Contains(t, text, "Day statistics")
	assert.Contains(t, text, "3 objects in 2 of 4 frames")

	_, err = os.Stat(filepath.Join(out, "day_files_no_detections_total-1.txt"))
	assert.NoError(t, err)
}

func TestRunCompare(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	var buf bytes.Buffer

	err := Run(Options{
		Logs:    []string{sampleLog(t, dir, "day_result.txt"), sampleLog(t, dir, "night_result.txt")},
		Compare: true,
		OutDir:  out,
	}, &buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Total detections across all logs: 6")
	assert.Contains(t, buf.String(), "comparison of Day, Night")

	// compare mode does not write file lists
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
