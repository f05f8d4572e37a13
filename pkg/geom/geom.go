package geom

import (
	"github.com/chewxy/math32"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Distance(b Point) float32 {
	return math32.Sqrt(float32((p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y)))
}

type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

func (r Rect) Area() int {
	return r.Width * r.Height
}

func (r Rect) X2() int {
	return r.X + r.Width
}

func (r Rect) Y2() int {
	return r.Y + r.Height
}

func (r Rect) Intersection(b Rect) Rect {
	x1 := max(r.X, b.X)
	y1 := max(r.Y, b.Y)
	x2 := min(r.X+r.Width, b.X+b.Width)
	y2 := min(r.Y+r.Height, b.Y+b.Height)
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  max(0, x2-x1),
		Height: max(0, y2-y1),
	}
}

func (r Rect) Union(b Rect) Rect {
	x1 := min(r.X, b.X)
	y1 := min(r.Y, b.Y)
	x2 := max(r.X+r.Width, b.X+b.Width)
	y2 := max(r.Y+r.Height, b.Y+b.Height)
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

// ContainsRect is true if b lies entirely inside r (boundary inclusive)
func (r Rect) ContainsRect(b Rect) bool {
	return b.X >= r.X && b.Y >= r.Y && b.X2() <= r.X2() && b.Y2() <= r.Y2()
}

func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.X2() && p.Y < r.Y2()
}

func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

// Polygon is an ordered list of vertices.
// On-screen overlays such as engine clusters are not rectangular, so we
// describe them as polygons and mask out the surrounding pixels.
type Polygon []Point

// Bounds returns the axis-aligned bounding box of the polygon.
// An empty polygon returns a zero rect.
func (p Polygon) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	x1, y1 := p[0].X, p[0].Y
	x2, y2 := p[0].X, p[0].Y
	for _, v := range p[1:] {
		x1 = min(x1, v.X)
		y1 = min(y1, v.Y)
		x2 = max(x2, v.X)
		y2 = max(y2, v.Y)
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// ContainsPoint uses the even-odd ray casting rule.
// Points exactly on an edge may land on either side; our polygons are
// hand-drawn screen regions, so a one-pixel ambiguity doesn't matter.
func (p Polygon) ContainsPoint(pt Point) bool {
	inside := false
	n := len(p)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		a := p[i]
		b := p[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			cross := float32(b.X-a.X)*(float32(pt.Y-a.Y)/float32(b.Y-a.Y)) + float32(a.X)
			if float32(pt.X) < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
