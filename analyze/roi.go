package analyze

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	clipper "github.com/ctessum/go.clipper"
	"github.com/swdee/go-rkiva"
)

// ROI is a closed polygon region of interest in frame pixel coordinates
type ROI struct {
	path clipper.Path
	area float64
}

// ParseROI reads a polygon from a list of comma separated coordinates
// "x1,y1,x2,y2,x3,y3,..."
func ParseROI(s string) (*ROI, error) {

	parts := strings.Split(s, ",")

	if len(parts) < 6 || len(parts)%2 != 0 {
		return nil, errors.Newf("roi %q needs at least three x,y pairs", s)
	}

	var path clipper.Path

	for i := 0; i < len(parts); i += 2 {
		x, err := strconv.Atoi(strings.TrimSpace(parts[i]))

		if err != nil {
			return nil, errors.Wrapf(err, "roi x coordinate %q", parts[i])
		}

		y, err := strconv.Atoi(strings.TrimSpace(parts[i+1]))

		if err != nil {
			return nil, errors.Wrapf(err, "roi y coordinate %q", parts[i+1])
		}

		path = append(path, &clipper.IntPoint{X: clipper.CInt(x), Y: clipper.CInt(y)})
	}

	area := pathArea(path)

	if area == 0 {
		return nil, errors.Newf("roi %q has no area", s)
	}

	return &ROI{path: path, area: area}, nil
}

// Area of the region
func (r *ROI) Area() float64 {
	return r.area
}

// Overlap returns the fraction of the rectangle's area that lies inside the
// region
func (r *ROI) Overlap(rect rkiva.Rect) float64 {

	boxArea := float64(rect.Width()) * float64(rect.Height())

	if boxArea <= 0 {
		return 0
	}

	box := clipper.Path{
		&clipper.IntPoint{X: clipper.CInt(rect.TopLeft.X), Y: clipper.CInt(rect.TopLeft.Y)},
		&clipper.IntPoint{X: clipper.CInt(rect.BottomRight.X), Y: clipper.CInt(rect.TopLeft.Y)},
		&clipper.IntPoint{X: clipper.CInt(rect.BottomRight.X), Y: clipper.CInt(rect.BottomRight.Y)},
		&clipper.IntPoint{X: clipper.CInt(rect.TopLeft.X), Y: clipper.CInt(rect.BottomRight.Y)},
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(box, clipper.PtSubject, true)
	c.AddPath(r.path, clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero, clipper.PftNonZero)

	if !ok {
		return 0
	}

	var inter float64

	for _, p := range solution {
		inter += pathArea(p)
	}

	return math.Min(inter/boxArea, 1)
}

// Hits counts the objects in log whose box lies inside the region by at
// least minOverlap of its area, and the number of blocks with such an object
func (r *ROI) Hits(log *Log, minOverlap float64) (objects, frames int) {

	for i := range log.Blocks {
		hit := false

		for _, obj := range log.Blocks[i].Objects {
			if r.Overlap(obj.Rect) >= minOverlap {
				objects++
				hit = true
			}
		}

		if hit {
			frames++
		}
	}

	return objects, frames
}

// pathArea is the absolute shoelace area of a closed path
func pathArea(p clipper.Path) float64 {

	n := len(p)

	if n < 3 {
		return 0
	}

	var a float64

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += float64(p[i].X)*float64(p[j].Y) - float64(p[j].X)*float64(p[i].Y)
	}

	return math.Abs(a) / 2
}
