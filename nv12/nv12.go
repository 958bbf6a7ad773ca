// Package nv12 converts images into the YUV420 semi-planar NV12 layout the
// detection engine consumes.  Conversion uses the same coefficients as
// OpenCV's COLOR_BGR2YUV with chroma taken from the top left pixel of each
// 2x2 block.
package nv12

import (
	"image"
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/draw"
)

// OpenCV BGR2YUV coefficients
const (
	kR = 0.299
	kG = 0.587
	kB = 0.114
	kU = 0.492111
	kV = 0.877283
)

// FrameSize returns the size in bytes of a width x height NV12 frame
func FrameSize(width, height int) int {
	return width * height * 3 / 2
}

// Resize scales src to width x height with bilinear interpolation.  If src is
// already that size it is returned as is.
func Resize(src image.Image, width, height int) image.Image {

	b := src.Bounds()

	if b.Dx() == width && b.Dy() == height {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	return dst
}

// FromImage resizes img to width x height and returns it as NV12 bytes
func FromImage(img image.Image, width, height int) ([]byte, error) {

	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return nil, errors.Newf("invalid NV12 frame size %dx%d, must be positive and even",
			width, height)
	}

	img = Resize(img, width, height)
	b := img.Bounds()

	out := make([]byte, FrameSize(width, height))
	yPlane := out[:width*height]
	uvPlane := out[width*height:]

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {

			r, g, bl := rgb8(img, b.Min.X+x, b.Min.Y+y)
			luma, u, v := toYUV(r, g, bl)

			yPlane[y*width+x] = luma

			// chroma from even rows and columns
			if y%2 == 0 && x%2 == 0 {
				i := (y/2)*width + x
				uvPlane[i] = u
				uvPlane[i+1] = v
			}
		}
	}

	return out, nil
}

// rgb8 returns the 8 bit colour components of a pixel
func rgb8(img image.Image, x, y int) (r, g, b float64) {

	if rgba, ok := img.(*image.RGBA); ok {
		i := rgba.PixOffset(x, y)
		return float64(rgba.Pix[i]), float64(rgba.Pix[i+1]), float64(rgba.Pix[i+2])
	}

	cr, cg, cb, _ := img.At(x, y).RGBA()

	return float64(cr >> 8), float64(cg >> 8), float64(cb >> 8)
}

// toYUV converts one pixel
func toYUV(r, g, b float64) (y, u, v byte) {

	luma := kR*r + kG*g + kB*b

	return clamp(luma), clamp((b-luma)*kU + 128), clamp((r-luma)*kV + 128)
}

func clamp(v float64) byte {
	return byte(math.Max(0, math.Min(255, math.Round(v))))
}

// FromYUV444 packs width x height interleaved Y,U,V triplets, as produced by
// OpenCV's BGR2YUV conversion, into NV12
func FromYUV444(yuv []byte, width, height int) ([]byte, error) {

	if len(yuv) < width*height*3 {
		return nil, errors.Newf("yuv buffer of %d bytes too small for %dx%d", len(yuv), width, height)
	}

	if width%2 != 0 || height%2 != 0 {
		return nil, errors.Newf("invalid NV12 frame size %dx%d, must be even", width, height)
	}

	out := make([]byte, FrameSize(width, height))
	uvPlane := out[width*height:]

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := (y*width + x) * 3
			out[y*width+x] = yuv[p]

			if y%2 == 0 && x%2 == 0 {
				i := (y/2)*width + x
				uvPlane[i] = yuv[p+1]
				uvPlane[i+1] = yuv[p+2]
			}
		}
	}

	return out, nil
}
