package render

import (
	"image"
	"image/color"
	"sync"

	"github.com/swdee/go-rkiva"
	"gocv.io/x/gocv"
)

// TrailStyle is how object movement trails are drawn.  When LineSame or
// CircleSame is set the object's box colour is used instead of LineColor or
// CircleColor.
type TrailStyle struct {
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	CircleSame    bool
	CircleColor   color.RGBA
	CircleRadius  int
}

// DefaultTrailStyle draws yellow lines ending in a dot of the box colour
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail keeps the recent box centre points of each tracked object id
type Trail struct {
	// size is the maximum number of points kept per object
	size    int
	history map[int][]image.Point
	mu      sync.Mutex
}

// NewTrail returns a Trail keeping at most size points per object
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int][]image.Point),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = make(map[int][]image.Point)
}

// Add records the box centre of each object
func (t *Trail) Add(objects []rkiva.ObjectInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, obj := range objects {
		pt := image.Pt(obj.Rect.TopLeft.X+obj.Rect.Width()/2,
			obj.Rect.TopLeft.Y+obj.Rect.Height()/2)

		pts := append(t.history[obj.ObjID], pt)

		// drop oldest point
		if len(pts) > t.size {
			pts = pts[1:]
		}

		t.history[obj.ObjID] = pts
	}
}

// Points returns a copy of the history of an object id
func (t *Trail) Points(id int) []image.Point {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]image.Point(nil), t.history[id]...)
}

// DrawTrail draws the movement history of the given objects
func DrawTrail(img *gocv.Mat, objects []rkiva.ObjectInfo, trail *Trail, style TrailStyle) {

	for _, obj := range objects {

		points := trail.Points(obj.ObjID)

		if len(points) < 2 {
			continue
		}

		lineClr, dotClr := style.LineColor, style.CircleColor

		if style.LineSame {
			lineClr = IDColor(obj.ObjID)
		}

		if style.CircleSame {
			dotClr = IDColor(obj.ObjID)
		}

		for i := 1; i < len(points); i++ {
			gocv.Line(img, points[i-1], points[i], lineClr, style.LineThickness)
		}

		gocv.Circle(img, points[len(points)-1], style.CircleRadius, dotClr, -1)
	}
}
