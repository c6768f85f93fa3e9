// Package camera provides the viewer's orbit camera.
package camera

import (
	gomath "math"

	"github.com/Faultbox/meshcache/pkg/math"
)

// OrbitCamera orbits a center point in a Z-up world.
type OrbitCamera struct {
	Center math.Vec3

	Distance float32
	Pitch    float32 // elevation above the XY plane, radians
	Yaw      float32 // rotation around Z, radians

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32

	FovY      float32
	Near, Far float32
}

// NewOrbitCamera creates an orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5,
		Pitch:           0.5,
		Yaw:             0.6,
		MinDistance:     0.01,
		MaxDistance:     1e5,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.008,
		ZoomSensitivity: 0.1,
		FovY:            0.8,
		Near:            0.01,
		Far:             1000,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	offset := math.Vec3{
		X: c.Distance * float32(cp*gomath.Sin(float64(c.Yaw))),
		Y: -c.Distance * float32(cp*gomath.Cos(float64(c.Yaw))),
		Z: c.Distance * float32(gomath.Sin(float64(c.Pitch))),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Z: 1})
}

// ProjectionMatrix returns the perspective projection for aspect.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	return math.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = min(max(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch), c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// FitToBounds centers the camera on the box and backs off until it fits.
func (c *OrbitCamera) FitToBounds(lo, hi math.Vec3) {
	c.Center = lo.Add(hi).Scale(0.5)
	radius := hi.Sub(lo).Length() / 2
	if radius == 0 {
		radius = 1
	}
	c.Distance = min(max(radius/float32(gomath.Sin(float64(c.FovY)/2)), c.MinDistance), c.MaxDistance)
	c.Near = c.Distance / 1000
	c.Far = c.Distance * 10
}
