package render

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/analyze"
	"github.com/swdee/go-rkiva/logger"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// AnnotateOptions control how logged detections are drawn
type AnnotateOptions struct {
	OutDir string
	Width  int
	Height int
	// Tracked colours boxes by object id and draws movement trails
	Tracked bool
	// TrailSize is the number of points kept per object when Tracked
	TrailSize int
	// MinScore skips objects scoring below it
	MinScore      int
	Font          Font
	LineThickness int
}

// DefaultAnnotateOptions returns the settings used by the annotate command
func DefaultAnnotateOptions() AnnotateOptions {
	return AnnotateOptions{
		Width:         rkiva.DefaultWidth,
		Height:        rkiva.DefaultHeight,
		TrailSize:     30,
		Font:          DefaultFont(),
		LineThickness: 2,
	}
}

// NV12ToBGR converts an NV12 frame into a BGR Mat, the caller must Close it
func NV12ToBGR(data []byte, width, height int) (gocv.Mat, error) {

	if len(data) < width*height*3/2 {
		return gocv.NewMat(), errors.Newf("frame of %d bytes too small for %dx%d NV12",
			len(data), width, height)
	}

	yuv, err := gocv.NewMatFromBytes(height*3/2, width, gocv.MatTypeCV8UC1,
		data[:width*height*3/2])

	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "creating NV12 mat")
	}

	defer yuv.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(yuv, &bgr, gocv.ColorYUVToBGRNV12)

	return bgr, nil
}

// AnnotateLog draws the detections recorded in a result log over their
// source frames and writes <stem>.jpg for each block into opts.OutDir.
// Frames that can't be read are logged and skipped.  The number of images
// written is returned.
func AnnotateLog(logPath string, opts AnnotateOptions, log *zap.SugaredLogger) (int, error) {

	if log == nil {
		log = logger.Component("annotate")
	}

	result, err := analyze.ParseFile(logPath)

	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "creating output directory %s", opts.OutDir)
	}

	var trail *Trail

	if opts.Tracked {
		trail = NewTrail(opts.TrailSize)
	}

	written := 0

	for i := range result.Blocks {
		block := &result.Blocks[i]

		out, err := annotateBlock(block, opts, trail)

		if err != nil {
			log.Warnw("cannot annotate frame", logger.FieldFile, block.File, logger.FieldError, err)
			continue
		}

		log.Debugw("annotated", logger.FieldFile, block.File, "output", out,
			logger.FieldObjects, len(block.Objects))
		written++
	}

	log.Infow("annotation finished", "written", written, "blocks", len(result.Blocks),
		"output", opts.OutDir)

	return written, nil
}

// annotateBlock renders one block and returns the written path
func annotateBlock(block *analyze.Block, opts AnnotateOptions, trail *Trail) (string, error) {

	data, err := os.ReadFile(block.File)

	if err != nil {
		return "", errors.Wrap(err, "reading frame")
	}

	img, err := NV12ToBGR(data, opts.Width, opts.Height)

	if err != nil {
		return "", err
	}

	defer img.Close()

	objects := make([]rkiva.ObjectInfo, 0, len(block.Objects))

	for _, obj := range block.Objects {
		if obj.Score >= opts.MinScore {
			objects = append(objects, obj)
		}
	}

	if trail != nil {
		trail.Add(objects)
		DrawTrail(&img, objects, trail, DefaultTrailStyle())
		TrackedBoxes(&img, objects, opts.Font, opts.LineThickness)
	} else {
		DetectionBoxes(&img, objects, opts.Font, opts.LineThickness)
	}

	stem := strings.TrimSuffix(filepath.Base(block.File), filepath.Ext(block.File))
	out := filepath.Join(opts.OutDir, stem+".jpg")

	if !gocv.IMWrite(out, img) {
		return "", errors.Newf("writing %s", out)
	}

	return out, nil
}
