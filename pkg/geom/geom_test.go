package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRect(t *testing.T) {
	a := Rect{X: 10, Y: 10, Width: 20, Height: 10}
	b := Rect{X: 15, Y: 5, Width: 20, Height: 10}
	require.Equal(t, 200, a.Area())
	require.Equal(t, Rect{X: 15, Y: 10, Width: 15, Height: 5}, a.Intersection(b))
	require.Equal(t, Rect{X: 10, Y: 5, Width: 25, Height: 15}, a.Union(b))
	require.True(t, a.ContainsRect(Rect{X: 10, Y: 10, Width: 20, Height: 10}))
	require.False(t, a.ContainsRect(Rect{X: 10, Y: 10, Width: 21, Height: 10}))
	require.True(t, a.ContainsPoint(Point{X: 10, Y: 10}))
	require.False(t, a.ContainsPoint(Point{X: 30, Y: 10}))
}

func TestPolygonBounds(t *testing.T) {
	p := Polygon{{X: 5, Y: 1}, {X: 9, Y: 8}, {X: 1, Y: 8}}
	require.Equal(t, Rect{X: 1, Y: 1, Width: 8, Height: 7}, p.Bounds())
	require.Equal(t, Rect{}, Polygon{}.Bounds())
}

func TestPolygonContainsPoint(t *testing.T) {
	// Simple square
	sq := Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	require.True(t, sq.ContainsPoint(Point{X: 5, Y: 5}))
	require.False(t, sq.ContainsPoint(Point{X: 15, Y: 5}))
	require.False(t, sq.ContainsPoint(Point{X: -1, Y: 5}))

	// Triangle
	tri := Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	require.True(t, tri.ContainsPoint(Point{X: 2, Y: 2}))
	require.False(t, tri.ContainsPoint(Point{X: 8, Y: 8}))

	// Degenerate
	require.False(t, Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}}.ContainsPoint(Point{X: 5, Y: 0}))
}
