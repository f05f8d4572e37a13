// Package extract cuts ROI regions out of decoded frames.
package extract

import (
	"fmt"

	"github.com/bmharper/cimg/v2"
	"github.com/stagewatch/stagewatch/pkg/geom"
)

// GeometryError means a ROI fell outside the frame bounds. It spoils the
// observation for that frame, not the run.
type GeometryError struct {
	Message string
}

func (e *GeometryError) Error() string {
	return e.Message
}

func geometryErrorf(format string, args ...any) *GeometryError {
	return &GeometryError{Message: fmt.Sprintf(format, args...)}
}

// Pixel value used to blank out everything outside a polygon mask.
// Mid-gray adds no strong edges for the OCR engine to chase.
const maskFill = 128

// Rect returns a straight crop of the frame.
func Rect(frame *cimg.Image, r geom.Rect) (*cimg.Image, error) {
	bounds := geom.Rect{X: 0, Y: 0, Width: frame.Width, Height: frame.Height}
	if !bounds.ContainsRect(r) {
		return nil, geometryErrorf("ROI %v,%v %vx%v is outside the %vx%v frame", r.X, r.Y, r.Width, r.Height, frame.Width, frame.Height)
	}
	crop := cimg.NewImage(r.Width, r.Height, cimg.PixelFormatRGB)
	crop.CopyImageRect(frame, r.X, r.Y, r.X2(), r.Y2(), 0, 0)
	return crop, nil
}

// Polygon crops the polygon's bounding box and masks out the pixels that lie
// outside the polygon, so that surrounding screen content doesn't leak into
// OCR.
func Polygon(frame *cimg.Image, poly geom.Polygon) (*cimg.Image, error) {
	if len(poly) < 3 {
		return nil, geometryErrorf("Polygon needs at least 3 vertices (got %v)", len(poly))
	}
	bbox := poly.Bounds()
	if bbox.Width == 0 {
		bbox.Width = 1
	}
	if bbox.Height == 0 {
		bbox.Height = 1
	}
	crop, err := Rect(frame, bbox)
	if err != nil {
		return nil, err
	}
	nchan := crop.NChan()
	for y := 0; y < crop.Height; y++ {
		row := crop.Pixels[y*crop.Stride : y*crop.Stride+crop.Width*nchan]
		for x := 0; x < crop.Width; x++ {
			if !poly.ContainsPoint(geom.Point{X: bbox.X + x, Y: bbox.Y + y}) {
				for c := 0; c < nchan; c++ {
					row[x*nchan+c] = maskFill
				}
			}
		}
	}
	return crop, nil
}

// LitPoints samples the frame at each point and counts how many are at or
// above the luminance threshold. Engine plumes read as bright spots against
// the dark interstage, so a lit count tracks how many engines are burning.
func LitPoints(frame *cimg.Image, points []geom.Point, threshold uint8) (int, error) {
	bounds := geom.Rect{X: 0, Y: 0, Width: frame.Width, Height: frame.Height}
	lit := 0
	nchan := frame.NChan()
	for _, p := range points {
		if !bounds.ContainsPoint(p) {
			return 0, geometryErrorf("Point %v,%v is outside the %vx%v frame", p.X, p.Y, frame.Width, frame.Height)
		}
		at := p.Y*frame.Stride + p.X*nchan
		r := int(frame.Pixels[at])
		g := int(frame.Pixels[at+1])
		b := int(frame.Pixels[at+2])
		luma := (299*r + 587*g + 114*b) / 1000
		if luma >= int(threshold) {
			lit++
		}
	}
	return lit, nil
}
