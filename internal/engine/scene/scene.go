// Package scene defines the scene descriptor: one camera, its orbit controls,
// the page placeholder it renders into, lights, and asynchronously loaded content.
package scene

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/multiscene/internal/engine/camera"
	"github.com/Faultbox/multiscene/internal/engine/model"
	"github.com/Faultbox/multiscene/internal/page"
)

// Lights holds the ambient and directional light of a scene.
type Lights struct {
	AmbientColor         mgl32.Vec3
	AmbientIntensity     float32
	DirectionalColor     mgl32.Vec3
	DirectionalIntensity float32
	DirectionalPosition  mgl32.Vec3
}

// Ambient returns the premultiplied ambient term.
func (l Lights) Ambient() mgl32.Vec3 {
	return l.AmbientColor.Mul(l.AmbientIntensity)
}

// Directional returns the premultiplied directional colour.
func (l Lights) Directional() mgl32.Vec3 {
	return l.DirectionalColor.Mul(l.DirectionalIntensity)
}

// LightDirection returns the unit vector from the origin towards the light.
func (l Lights) LightDirection() mgl32.Vec3 {
	if l.DirectionalPosition.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return l.DirectionalPosition.Normalize()
}

// Overrides replaces parts of a model's root transform. Nil fields keep the file's value.
type Overrides struct {
	Scale    *float32
	Position *[3]float32
	Rotation *[3]float32 // Euler XYZ, radians
}

// Content is the loaded, positioned geometry of a scene.
type Content struct {
	Model     *model.Model
	Transform model.Transform
}

// NewContent positions a model, applying overrides on top of its root transform.
func NewContent(m *model.Model, o Overrides) *Content {
	t := m.Root
	if o.Scale != nil {
		s := *o.Scale
		t.Scale = mgl32.Vec3{s, s, s}
	}
	if o.Position != nil {
		t.Translation = mgl32.Vec3(*o.Position)
	}
	if o.Rotation != nil {
		r := *o.Rotation
		t.Rotation = mgl32.QuatRotate(r[0], mgl32.Vec3{1, 0, 0}).
			Mul(mgl32.QuatRotate(r[1], mgl32.Vec3{0, 1, 0})).
			Mul(mgl32.QuatRotate(r[2], mgl32.Vec3{0, 0, 1}))
	}
	return &Content{Model: m, Transform: t}
}

// Matrix returns the model-to-world matrix.
func (c *Content) Matrix() mgl32.Mat4 {
	return c.Transform.Matrix()
}

// Descriptor is one independently controlled scene.
//
// Content, environment and load error are written by loader goroutines and
// read by the frame loop, so they are stored atomically. Everything else is
// only touched from the frame loop.
type Descriptor struct {
	Name        string
	Placeholder page.Placeholder
	Camera      *camera.Perspective
	Controls    *camera.OrbitControls
	Lights      Lights

	content     atomic.Pointer[Content]
	environment atomic.Pointer[mgl32.Vec3]
	loadErr     atomic.Pointer[error]
}

// New creates a descriptor. A nil placeholder, camera or controls is a
// programming error and panics.
func New(name string, placeholder page.Placeholder, cam *camera.Perspective, controls *camera.OrbitControls, lights Lights) *Descriptor {
	if placeholder == nil || cam == nil || controls == nil {
		panic(fmt.Sprintf("scene %q: placeholder, camera and controls are required", name))
	}
	return &Descriptor{
		Name:        name,
		Placeholder: placeholder,
		Camera:      cam,
		Controls:    controls,
		Lights:      lights,
	}
}

// Content returns the loaded content, or nil while loading.
func (d *Descriptor) Content() *Content {
	return d.content.Load()
}

// SetContent publishes loaded content. Safe to call from any goroutine.
func (d *Descriptor) SetContent(c *Content) {
	d.content.Store(c)
}

// Environment returns the image-based ambient radiance, if an environment map loaded.
func (d *Descriptor) Environment() (mgl32.Vec3, bool) {
	if v := d.environment.Load(); v != nil {
		return *v, true
	}
	return mgl32.Vec3{}, false
}

// SetEnvironment publishes the environment's average radiance. Safe to call from any goroutine.
func (d *Descriptor) SetEnvironment(radiance mgl32.Vec3) {
	d.environment.Store(&radiance)
}

// LoadError returns the last asset failure reported for this scene.
func (d *Descriptor) LoadError() error {
	if p := d.loadErr.Load(); p != nil {
		return *p
	}
	return nil
}

// SetLoadError records an asset failure. Safe to call from any goroutine.
func (d *Descriptor) SetLoadError(err error) {
	d.loadErr.Store(&err)
}

// Resize updates the camera aspect ratio from the placeholder's client size.
// A zero-height placeholder leaves the aspect unchanged.
func (d *Descriptor) Resize() {
	w, h := d.Placeholder.ClientSize()
	if h <= 0 {
		return
	}
	d.Camera.Aspect = w / h
	d.Camera.UpdateProjection()
}
