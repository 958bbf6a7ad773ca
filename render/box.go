package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/swdee/go-rkiva"
	"gocv.io/x/gocv"
)

// boxLabel is a label drawn after all boxes so it is the top most layer
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// DetectionBoxes renders the bounding box of each detected object coloured
// by its type with a "TYPE score" label
func DetectionBoxes(img *gocv.Mat, objects []rkiva.ObjectInfo, font Font, lineThickness int) {

	labels := make([]boxLabel, 0, len(objects))

	for _, obj := range objects {
		clr := TypeColor(obj.Type)
		text := fmt.Sprintf("%s %d", obj.Type.String(), obj.Score)

		labels = append(labels, drawBox(img, obj.Rect, clr, text, font, lineThickness))
	}

	drawLabels(img, labels, font)
}

// TrackedBoxes renders the bounding box of each object coloured by the
// tracking id assigned by the engine, with a "TYPE #id" label
func TrackedBoxes(img *gocv.Mat, objects []rkiva.ObjectInfo, font Font, lineThickness int) {

	labels := make([]boxLabel, 0, len(objects))

	for _, obj := range objects {
		clr := IDColor(obj.ObjID)
		text := fmt.Sprintf("%s #%d", obj.Type.String(), obj.ObjID)

		labels = append(labels, drawBox(img, obj.Rect, clr, text, font, lineThickness))
	}

	drawLabels(img, labels, font)
}

// drawBox draws the rectangle and works out where its label goes
func drawBox(img *gocv.Mat, r rkiva.Rect, clr color.RGBA, text string,
	font Font, lineThickness int) boxLabel {

	box := image.Rect(r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y)
	gocv.Rectangle(img, box, clr, lineThickness)

	bg, pos := font.layout(text, box, lineThickness)

	return boxLabel{
		rect:    bg,
		clr:     clr,
		text:    text,
		textPos: pos,
	}
}

// drawLabels paints the label backgrounds and text
func drawLabels(img *gocv.Mat, labels []boxLabel, font Font) {
	for _, l := range labels {
		gocv.Rectangle(img, l.rect, l.clr, -1)
		font.draw(img, l.text, l.textPos)
	}
}
