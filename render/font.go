package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment of a label along the top edge of its box
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Padding is the space in pixels around label text
type Padding struct {
	Left, Right, Top, Bottom int
}

// Font is the label text style
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	Pad       Padding
	Align     Alignment
}

// DefaultFont returns the label style used for annotated frames
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		Pad:       Padding{Left: 4, Right: 4, Top: 4, Bottom: 6},
		Align:     AlignLeft,
	}
}

// Measure returns the size of text including padding
func (f Font) Measure(text string) image.Point {

	sz := gocv.GetTextSize(text, f.Face, f.Scale, f.Thickness)

	return image.Pt(sz.X+f.Pad.Left+f.Pad.Right, sz.Y+f.Pad.Top+f.Pad.Bottom)
}

// layout places the label for text above box.  The label sits on the top
// edge and is pushed down when it would leave the image.
func (f Font) layout(text string, box image.Rectangle, lineThickness int) (image.Rectangle, image.Point) {

	sz := f.Measure(text)
	half := lineThickness / 2

	var x int

	switch f.Align {
	case AlignCenter:
		x = (box.Min.X+box.Max.X)/2 - sz.X/2
	case AlignRight:
		x = box.Max.X - sz.X + half
	default:
		x = box.Min.X - half
	}

	bottom := max(box.Min.Y, sz.Y)
	bg := image.Rect(x, bottom-sz.Y, x+sz.X, bottom)

	return bg, image.Pt(x+f.Pad.Left, bottom-f.Pad.Bottom)
}

// draw renders text with its baseline at pos
func (f Font) draw(img *gocv.Mat, text string, pos image.Point) {
	gocv.PutTextWithParams(img, text, pos, f.Face, f.Scale, f.Color,
		f.Thickness, f.LineType, false)
}
