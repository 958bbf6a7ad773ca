// Package convert extracts frames from a video file into jpeg, raw RGB or
// NV12 files for use as harness input.
package convert

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/swdee/go-rkiva/logger"
	"github.com/swdee/go-rkiva/nv12"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Format of the extracted frames
type Format string

const (
	JPEG Format = "jpeg"
	YUV  Format = "yuv"
	RGB  Format = "rgb"
)

// jpegQuality used for jpeg frames
const jpegQuality = 95

// ParseFormat returns the Format for s, unknown formats fall back to jpeg
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(s)) {
	case JPEG:
		return JPEG, true
	case YUV:
		return YUV, true
	case RGB:
		return RGB, true
	}

	return JPEG, false
}

// Ext returns the file extension frames of this format are saved with
func (f Format) Ext() string {
	switch f {
	case YUV:
		return ".yuv"
	case RGB:
		return ".rgb"
	default:
		return ".jpg"
	}
}

// Options of a video conversion
type Options struct {
	OutDir string
	// Interval saves every Nth frame
	Interval int
	Width    int
	Height   int
	Format   Format
}

// FrameName returns the file name of the nth saved frame
func FrameName(n int, f Format) string {
	return fmt.Sprintf("frame_%06d%s", n, f.Ext())
}

// VideoToFrames decodes the video at path and saves every Interval frame
// resized to Width x Height.  It returns the number of frames saved.
func VideoToFrames(path string, opts Options, log *zap.SugaredLogger) (int, error) {

	if log == nil {
		log = logger.Component("convert")
	}

	if opts.Interval < 1 {
		opts.Interval = 1
	}

	if opts.Width <= 0 || opts.Height <= 0 {
		return 0, errors.Newf("invalid output size %dx%d", opts.Width, opts.Height)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "creating output directory %s", opts.OutDir)
	}

	video, err := gocv.VideoCaptureFile(path)

	if err != nil {
		return 0, errors.Wrapf(err, "cannot open video file %s", path)
	}

	defer video.Close()

	if !video.IsOpened() {
		return 0, errors.Newf("cannot open video file %s", path)
	}

	log.Infow("video opened",
		"fps", video.Get(gocv.VideoCaptureFPS),
		"frames", int(video.Get(gocv.VideoCaptureFrameCount)),
		"width", opts.Width,
		"height", opts.Height,
		"format", string(opts.Format),
	)

	frame := gocv.NewMat()
	defer frame.Close()

	resized := gocv.NewMat()
	defer resized.Close()

	count, saved := 0, 0

	for video.Read(&frame) {

		if frame.Empty() {
			continue
		}

		if count%opts.Interval == 0 {
			gocv.Resize(frame, &resized, image.Pt(opts.Width, opts.Height), 0, 0,
				gocv.InterpolationLinear)

			out := filepath.Join(opts.OutDir, FrameName(saved, opts.Format))

			if err := saveFrame(resized, out, opts); err != nil {
				return saved, err
			}

			log.Debugw("saved", logger.FieldFile, out)
			saved++
		}

		count++
	}

	log.Infow("video conversion finished", "saved", saved, "output", opts.OutDir)

	return saved, nil
}

// saveFrame writes a BGR frame in the requested format
func saveFrame(bgr gocv.Mat, path string, opts Options) error {

	switch opts.Format {

	case YUV:
		data, err := BGRToNV12(bgr)

		if err != nil {
			return err
		}

		return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)

	case RGB:
		rgb := gocv.NewMat()
		defer rgb.Close()

		gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB)

		return errors.Wrapf(os.WriteFile(path, rgb.ToBytes(), 0o644), "writing %s", path)

	default:
		if !gocv.IMWriteWithParams(path, bgr, []int{gocv.IMWriteJpegQuality, jpegQuality}) {
			return errors.Newf("writing %s", path)
		}

		return nil
	}
}

// BGRToNV12 converts a BGR Mat into NV12 bytes
func BGRToNV12(bgr gocv.Mat) ([]byte, error) {

	yuv := gocv.NewMat()
	defer yuv.Close()

	gocv.CvtColor(bgr, &yuv, gocv.ColorBGRToYUV)

	return nv12.FromYUV444(yuv.ToBytes(), yuv.Cols(), yuv.Rows())
}
