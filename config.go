package rkiva

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultModelPath is the directory the IVA model data is loaded from
	DefaultModelPath = "/tmp/"
	// DefaultModelName is the person/face/pet detection model
	DefaultModelName = "iva_object_detection_v3_pfp_nn_640x384.data"
	// DefaultWidth of input frames
	DefaultWidth = 640
	// DefaultHeight of input frames
	DefaultHeight = 360
	// DefaultFrameRate is the target detection rate in frames per second
	DefaultFrameRate = 10
)

// Config holds the parameters used to create the IVA engine, it mirrors the
// sample SAMPLE_IVA_CTX_S context of the RKMPI SDK
type Config struct {
	// ModelPath is the directory holding the model data files
	ModelPath string
	// ModelName is the detection model file name within ModelPath
	ModelName string
	Width     uint32
	Height    uint32
	// Detect region, defaults to the whole frame when DetectWidth is zero
	DetectX      uint32
	DetectY      uint32
	DetectWidth  uint32
	DetectHeight uint32
	Format       ImageFormat
	Transform    TransformMode
	Model        DetModel
	// FrameRate is the detection rate hint given to the engine
	FrameRate uint32
	// CoreMask selects the NPU core, zero lets the SDK choose
	CoreMask uint32
}

// DefaultConfig returns the engine configuration used by the harness when no
// options are given
func DefaultConfig() Config {
	return Config{
		ModelPath: DefaultModelPath,
		ModelName: DefaultModelName,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Format:    FormatYUV420SPNV12,
		Transform: TransformNone,
		Model:     DetModelPFP,
		FrameRate: DefaultFrameRate,
	}
}

// Validate checks the configuration can be handed to the engine
func (c *Config) Validate() error {

	if c.Width == 0 || c.Height == 0 {
		return errors.Mark(errors.Newf("invalid frame size %dx%d", c.Width, c.Height), ErrConfig)
	}

	if c.Width%2 != 0 || c.Height%2 != 0 {
		return errors.Mark(errors.Newf("frame size %dx%d must be even for 4:2:0 formats",
			c.Width, c.Height), ErrConfig)
	}

	if c.FrameRate == 0 {
		return errors.Mark(errors.New("frame rate must be greater than zero"), ErrConfig)
	}

	if c.ModelName == "" {
		return errors.Mark(errors.New("model name is empty"), ErrConfig)
	}

	return nil
}

// DetectArea returns the detection region, the full frame if none was set
func (c *Config) DetectArea() (x, y, w, h uint32) {
	if c.DetectWidth == 0 || c.DetectHeight == 0 {
		return 0, 0, c.Width, c.Height
	}

	return c.DetectX, c.DetectY, c.DetectWidth, c.DetectHeight
}

// ModelFile returns the full path of the model data file
func (c *Config) ModelFile() string {
	return filepath.Join(c.ModelPath, c.ModelName)
}

// FrameSize returns the number of bytes of one input frame
func (c *Config) FrameSize() int {
	return c.Format.FrameSize(c.Width, c.Height)
}
