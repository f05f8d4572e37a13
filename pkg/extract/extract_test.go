package extract

import (
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/stagewatch/stagewatch/pkg/geom"
	"github.com/stretchr/testify/require"
)

func testFrame(width, height int) *cimg.Image {
	img := cimg.NewImage(width, height, cimg.PixelFormatRGB)
	// Gradient so that crops are distinguishable
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			at := y*img.Stride + x*3
			img.Pixels[at] = byte(x)
			img.Pixels[at+1] = byte(y)
			img.Pixels[at+2] = 7
		}
	}
	return img
}

func pixelAt(img *cimg.Image, x, y int) [3]byte {
	at := y*img.Stride + x*3
	return [3]byte{img.Pixels[at], img.Pixels[at+1], img.Pixels[at+2]}
}

func TestRectCrop(t *testing.T) {
	frame := testFrame(64, 48)
	crop, err := Rect(frame, geom.Rect{X: 10, Y: 20, Width: 8, Height: 4})
	require.NoError(t, err)
	require.Equal(t, 8, crop.Width)
	require.Equal(t, 4, crop.Height)
	require.Equal(t, [3]byte{10, 20, 7}, pixelAt(crop, 0, 0))
	require.Equal(t, [3]byte{17, 23, 7}, pixelAt(crop, 7, 3))
}

func TestRectOutOfBounds(t *testing.T) {
	frame := testFrame(64, 48)
	cases := []geom.Rect{
		{X: 60, Y: 0, Width: 8, Height: 4},    // right overflow
		{X: 0, Y: 46, Width: 8, Height: 4},    // bottom overflow
		{X: -1, Y: 0, Width: 8, Height: 4},    // negative origin
		{X: 100, Y: 100, Width: 8, Height: 4}, // fully outside
	}
	for _, r := range cases {
		_, err := Rect(frame, r)
		require.Error(t, err)
		require.IsType(t, &GeometryError{}, err)
	}

	// Flush against the frame edge is fine
	_, err := Rect(frame, geom.Rect{X: 56, Y: 44, Width: 8, Height: 4})
	require.NoError(t, err)
}

func TestPolygonMask(t *testing.T) {
	frame := testFrame(64, 48)
	// Triangle with a corner cut off: the far corner of the bbox is outside
	poly := geom.Polygon{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 10, Y: 30}}
	crop, err := Polygon(frame, poly)
	require.NoError(t, err)
	require.Equal(t, 20, crop.Width)
	require.Equal(t, 20, crop.Height)

	// Inside the triangle: original pixels
	require.Equal(t, [3]byte{12, 12, 7}, pixelAt(crop, 2, 2))
	// Outside the triangle but inside the bbox: neutral fill
	require.Equal(t, [3]byte{maskFill, maskFill, maskFill}, pixelAt(crop, 19, 19))
}

func TestPolygonOutOfBounds(t *testing.T) {
	frame := testFrame(64, 48)
	_, err := Polygon(frame, geom.Polygon{{X: 50, Y: 40}, {X: 70, Y: 40}, {X: 50, Y: 60}})
	require.IsType(t, &GeometryError{}, err)

	_, err = Polygon(frame, geom.Polygon{{X: 1, Y: 1}, {X: 2, Y: 2}})
	require.IsType(t, &GeometryError{}, err)
}

func TestLitPoints(t *testing.T) {
	frame := cimg.NewImage(16, 16, cimg.PixelFormatRGB)
	set := func(x, y int, v byte) {
		at := y*frame.Stride + x*3
		frame.Pixels[at] = v
		frame.Pixels[at+1] = v
		frame.Pixels[at+2] = v
	}
	set(2, 2, 250) // lit
	set(4, 4, 240) // lit
	set(6, 6, 40)  // dark

	points := []geom.Point{{X: 2, Y: 2}, {X: 4, Y: 4}, {X: 6, Y: 6}}
	lit, err := LitPoints(frame, points, 200)
	require.NoError(t, err)
	require.Equal(t, 2, lit)

	_, err = LitPoints(frame, []geom.Point{{X: 20, Y: 2}}, 200)
	require.IsType(t, &GeometryError{}, err)
}
