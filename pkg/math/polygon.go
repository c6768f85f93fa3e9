package math

import "math"

// PolyNormal returns the unit normal of a planar or near-planar polygon
// using Newell's method. Degenerate polygons return the zero vector.
func PolyNormal(pts []Vec3) Vec3 {
	var n Vec3
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Normalize()
}

// PolyArea returns the area of a 3D polygon.
func PolyArea(pts []Vec3) float32 {
	if len(pts) < 3 {
		return 0
	}
	var sum Vec3
	for i := 1; i+1 < len(pts); i++ {
		sum = sum.Add(pts[i].Sub(pts[0]).Cross(pts[i+1].Sub(pts[0])))
	}
	return sum.Length() / 2
}

// PolyArea2 returns the unsigned area of a 2D polygon (shoelace formula).
func PolyArea2(pts []Vec2) float32 {
	if len(pts) < 3 {
		return 0
	}
	var sum float32
	for i := range pts {
		sum += pts[i].Cross(pts[(i+1)%len(pts)])
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// Angle returns the unsigned angle between two vectors in radians.
func Angle(a, b Vec3) float32 {
	d := a.Normalize().Dot(b.Normalize())
	return float32(math.Acos(float64(clamp(d, -1, 1))))
}

// Angle2 returns the unsigned angle between two 2D vectors in radians.
func Angle2(a, b Vec2) float32 {
	d := a.Normalize().Dot(b.Normalize())
	return float32(math.Acos(float64(clamp(d, -1, 1))))
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
