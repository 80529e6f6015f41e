// Package geom provides the 2D vector math used for aiming and projectile
// movement.
package geom

import "math"

// Vec2 is a point or direction in world units.
type Vec2 struct {
	X, Y float64
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Normalized returns the unit vector in v's direction, or the zero vector
// when v has no length.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Rotate returns v rotated counter-clockwise by deg degrees.
func (v Vec2) Rotate(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec2{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// FromAngle returns the unit vector at deg degrees from the +X axis.
func FromAngle(deg float64) Vec2 {
	return Vec2{X: 1}.Rotate(deg)
}

// ApproxEqual reports whether v and o differ by at most eps on each axis.
func (v Vec2) ApproxEqual(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}
