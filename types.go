package rkiva

import "fmt"

// ObjectType wraps RockIvaObjectType, the class of a detected object
type ObjectType int

// object types reported by the IVA detection models
const (
	ObjectNone ObjectType = iota
	ObjectPerson
	ObjectVehicle
	ObjectNonVehicle
	ObjectFace
	ObjectHead
	ObjectPet
	ObjectMotorcycle
	ObjectBicycle
	ObjectPlate
	ObjectBaby
	ObjectPackage
	// ObjectTypeMax is one past the last known object type
	ObjectTypeMax
)

// objectTypeNames is indexed by ObjectType
var objectTypeNames = [ObjectTypeMax]string{
	"NONE",
	"PERSON",
	"VEHICLE",
	"NON_VEHICLE",
	"FACE",
	"HEAD",
	"PET",
	"MOTORCYCLE",
	"BICYCLE",
	"PLATE",
	"BABY",
	"PACKAGE",
}

// String returns the upper case name of the object type, or UNKNOWN if the
// value is outside the known range
func (t ObjectType) String() string {
	if t < 0 || t >= ObjectTypeMax {
		return "UNKNOWN"
	}

	return objectTypeNames[t]
}

// ParseObjectType returns the ObjectType for the given name as produced by
// String()
func ParseObjectType(name string) (ObjectType, bool) {
	for i, n := range objectTypeNames {
		if n == name {
			return ObjectType(i), true
		}
	}

	return ObjectNone, false
}

// ImageFormat wraps RockIvaImageFormat
type ImageFormat int

const (
	FormatGray8 ImageFormat = iota
	FormatRGB888
	FormatBGR888
	FormatYUV420PYU12
	FormatYUV420SPNV12
	FormatYUV420SPNV21
)

// String returns a readable name of the image format
func (f ImageFormat) String() string {
	switch f {
	case FormatGray8:
		return "GRAY8"
	case FormatRGB888:
		return "RGB888"
	case FormatBGR888:
		return "BGR888"
	case FormatYUV420PYU12:
		return "YUV420P_YU12"
	case FormatYUV420SPNV12:
		return "YUV420SP_NV12"
	case FormatYUV420SPNV21:
		return "YUV420SP_NV21"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// FrameSize returns the number of bytes a width x height image occupies in
// this format
func (f ImageFormat) FrameSize(width, height uint32) int {

	// widen before multiplying so large sizes can't wrap in uint32
	pixels := int(width) * int(height)

	switch f {
	case FormatGray8:
		return pixels
	case FormatRGB888, FormatBGR888:
		return pixels * 3
	default:
		// all 4:2:0 layouts
		return pixels * 3 / 2
	}
}

// TransformMode wraps RockIvaImageTransform, the rotation or flip the engine
// applies to the input image
type TransformMode int

const (
	TransformNone TransformMode = iota
	TransformFlipH
	TransformFlipV
	TransformRotate90
	TransformRotate180
	TransformRotate270
)

// DetModel wraps RockIvaDetModel and selects the detection network
type DetModel int

const (
	// DetModelPFP detects person, face and pet
	DetModelPFP DetModel = iota
	// DetModelCLS7 detects the seven class person/vehicle set
	DetModelCLS7
)

// ExecuteStatus wraps RockIvaExecuteStatus which accompanies each detection
// result
type ExecuteStatus int

const (
	StatusSuccess ExecuteStatus = iota
	StatusFailure
	StatusUnsupported
)

// String returns a readable description of the status
func (s ExecuteStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Point is an integer pixel coordinate
type Point struct {
	X int
	Y int
}

// Rect is a bounding box defined by its top left and bottom right corners
type Rect struct {
	TopLeft     Point
	BottomRight Point
}

// Width of the rectangle
func (r Rect) Width() int {
	return r.BottomRight.X - r.TopLeft.X
}

// Height of the rectangle
func (r Rect) Height() int {
	return r.BottomRight.Y - r.TopLeft.Y
}

// ObjectInfo represents a single detected object from RockIvaObjectInfo
type ObjectInfo struct {
	Rect Rect
	// ObjID is the tracking id assigned by the engine
	ObjID int
	// FrameID is the id of the frame the object was detected in
	FrameID int
	// Score is the detection confidence in the range 0-100
	Score int
	Type  ObjectType
}

// DetectResult represents RockIvaDetectResult, the detections for one frame
type DetectResult struct {
	FrameID int
	Objects []ObjectInfo
}

// Count returns the number of objects detected
func (d *DetectResult) Count() int {
	return len(d.Objects)
}

// Image describes a frame submitted to the engine, it wraps RockIvaImage
type Image struct {
	Width     uint32
	Height    uint32
	Format    ImageFormat
	Transform TransformMode
	// FrameID increases monotonically for each frame pushed
	FrameID uint32
	// Fd is the DMA buffer file descriptor the hardware engine reads from,
	// it is -1 for heap memory
	Fd int
	// Data is a view of the frame bytes, the hardware engine ignores it and
	// reads through Fd
	Data []byte
}

// ReleasedFrame identifies a frame the engine has finished with
type ReleasedFrame struct {
	FrameID uint32
	Fd      int
}

// ResultHandler receives detection results on the engine's goroutine
type ResultHandler func(result *DetectResult, status ExecuteStatus)

// ReleaseHandler is called on the engine's goroutine once it no longer needs
// the submitted frames
type ReleaseHandler func(frames []ReleasedFrame)
