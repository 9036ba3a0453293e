package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-6

// OrbitControls rotates a camera around a target point in spherical coordinates.
// Input handlers accumulate a rotation delta; Update applies it once per frame,
// easing it out when damping is enabled.
type OrbitControls struct {
	camera *Perspective

	// Target the camera orbits around
	Target mgl32.Vec3

	// Constraints
	MinDistance   float32
	MaxDistance   float32
	MinPolarAngle float32 // radians, measured from +Y
	MaxPolarAngle float32

	// Behaviour
	EnableDamping   bool
	DampingFactor   float32
	EnableRotate    bool
	EnableZoom      bool
	EnablePan       bool
	AutoRotate      bool
	AutoRotateSpeed float32 // 2.0 is one turn every 30 seconds at 60fps
	RotateSpeed     float32
	ZoomSpeed       float32

	thetaDelta float32
	phiDelta   float32
	scale      float32
}

// NewOrbitControls binds controls to a camera, orbiting the origin.
func NewOrbitControls(cam *Perspective) *OrbitControls {
	return &OrbitControls{
		camera:          cam,
		MinDistance:     0,
		MaxDistance:     float32(math.Inf(1)),
		MinPolarAngle:   0,
		MaxPolarAngle:   math.Pi,
		DampingFactor:   0.05,
		EnableRotate:    true,
		EnableZoom:      true,
		EnablePan:       true,
		AutoRotateSpeed: 2,
		RotateSpeed:     1,
		ZoomSpeed:       1,
		scale:           1,
	}
}

// Camera returns the controlled camera.
func (o *OrbitControls) Camera() *Perspective {
	return o.camera
}

// RotateLeft queues an azimuthal rotation in radians.
func (o *OrbitControls) RotateLeft(angle float32) {
	o.thetaDelta -= angle
}

// RotateUp queues a polar rotation in radians.
func (o *OrbitControls) RotateUp(angle float32) {
	o.phiDelta -= angle
}

// HandleDrag converts a pointer drag over an element of the given height
// into rotation. A drag across the full element height is one full turn.
func (o *OrbitControls) HandleDrag(deltaX, deltaY, elementHeight float32) {
	if !o.EnableRotate || elementHeight <= 0 {
		return
	}
	o.RotateLeft(2 * math.Pi * deltaX / elementHeight * o.RotateSpeed)
	o.RotateUp(2 * math.Pi * deltaY / elementHeight * o.RotateSpeed)
}

// HandleZoom dollies in for positive delta and out for negative delta.
func (o *OrbitControls) HandleZoom(delta float32) {
	if !o.EnableZoom || delta == 0 {
		return
	}
	step := float32(math.Pow(0.95, float64(o.ZoomSpeed)))
	if delta > 0 {
		o.scale *= step
	} else {
		o.scale /= step
	}
}

// HandlePan moves the target in the camera plane.
func (o *OrbitControls) HandlePan(deltaX, deltaY, elementHeight float32) {
	if !o.EnablePan || elementHeight <= 0 {
		return
	}
	offset := o.camera.Position.Sub(o.Target)
	dist := offset.Len() * float32(math.Tan(float64(mgl32.DegToRad(o.camera.FOV))/2))
	forward := offset.Normalize().Mul(-1)
	right := forward.Cross(o.camera.Up).Normalize()
	up := right.Cross(forward)
	move := right.Mul(-2 * deltaX * dist / elementHeight).Add(up.Mul(2 * deltaY * dist / elementHeight))
	o.Target = o.Target.Add(move)
	o.camera.Position = o.camera.Position.Add(move)
}

func (o *OrbitControls) autoRotationAngle() float32 {
	return 2 * math.Pi / 60 / 60 * o.AutoRotateSpeed
}

// Update advances the controls by one step and moves the camera.
// It returns true when the camera moved noticeably.
func (o *OrbitControls) Update() bool {
	offset := o.camera.Position.Sub(o.Target)
	radius := offset.Len()
	var theta, phi float64
	if radius > 0 {
		theta = math.Atan2(float64(offset.X()), float64(offset.Z()))
		phi = math.Acos(float64(mgl32.Clamp(offset.Y()/radius, -1, 1)))
	}

	if o.AutoRotate {
		o.RotateLeft(o.autoRotationAngle())
	}

	if o.EnableDamping {
		theta += float64(o.thetaDelta * o.DampingFactor)
		phi += float64(o.phiDelta * o.DampingFactor)
	} else {
		theta += float64(o.thetaDelta)
		phi += float64(o.phiDelta)
	}

	phi = math.Max(float64(o.MinPolarAngle), math.Min(float64(o.MaxPolarAngle), phi))
	phi = math.Max(epsilon, math.Min(math.Pi-epsilon, phi))

	radius *= o.scale
	radius = mgl32.Clamp(radius, o.MinDistance, o.MaxDistance)

	sinPhi := math.Sin(phi)
	next := mgl32.Vec3{
		radius * float32(sinPhi*math.Sin(theta)),
		radius * float32(math.Cos(phi)),
		radius * float32(sinPhi*math.Cos(theta)),
	}

	prev := o.camera.Position
	o.camera.Position = o.Target.Add(next)
	o.camera.Target = o.Target

	if o.EnableDamping {
		o.thetaDelta *= 1 - o.DampingFactor
		o.phiDelta *= 1 - o.DampingFactor
	} else {
		o.thetaDelta = 0
		o.phiDelta = 0
	}
	o.scale = 1

	return prev.Sub(o.camera.Position).Len() > epsilon
}

// Distance returns the current camera distance from the target.
func (o *OrbitControls) Distance() float32 {
	return o.camera.Position.Sub(o.Target).Len()
}
