// Package camera provides the perspective camera and orbit controls used by each scene.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Perspective is a perspective-projection camera looking at a target.
type Perspective struct {
	FOV    float32 // Vertical field of view in degrees
	Aspect float32
	Near   float32
	Far    float32
	Zoom   float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	projection mgl32.Mat4
}

// NewPerspective creates a camera at the origin looking down -Z.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Zoom:   1,
		Target: mgl32.Vec3{0, 0, -1},
		Up:     mgl32.Vec3{0, 1, 0},
	}
	c.UpdateProjection()
	return c
}

// EffectiveFOV returns the vertical field of view in degrees after zoom.
func (c *Perspective) EffectiveFOV() float32 {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	half := math.Tan(float64(mgl32.DegToRad(c.FOV)) / 2)
	return mgl32.RadToDeg(float32(2 * math.Atan(half/float64(zoom))))
}

// UpdateProjection recomputes the projection matrix. Call after changing
// FOV, Aspect, Near, Far or Zoom.
func (c *Perspective) UpdateProjection() {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.EffectiveFOV()), aspect, c.Near, c.Far)
}

// Projection returns the last computed projection matrix.
func (c *Perspective) Projection() mgl32.Mat4 {
	return c.projection
}

// View returns the world-to-camera matrix.
func (c *Perspective) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ViewProjection returns Projection * View.
func (c *Perspective) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.View())
}
