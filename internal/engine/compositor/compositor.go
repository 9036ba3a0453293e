// Package compositor draws many scenes into sub-rectangles of one shared
// surface, each clipped to the on-screen position of its page placeholder.
package compositor

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/multiscene/internal/engine/scene"
	"github.com/Faultbox/multiscene/internal/engine/viewport"
	"github.com/Faultbox/multiscene/internal/logger"
)

// DefaultMaxPixelRatio caps the device pixel ratio used for the drawable.
const DefaultMaxPixelRatio = 2

// Surface is the shared render target. Coordinates passed to SetViewport
// and SetScissor are logical (CSS-like) pixels with a bottom-left origin;
// the surface applies its own pixel ratio.
type Surface interface {
	SetClearColor(color mgl32.Vec3)
	SetScissorTest(enabled bool)
	Clear()
	SetViewport(r viewport.Region)
	SetScissor(r viewport.Region)
	Render(d *scene.Descriptor)
	SetPixelRatio(ratio float32)
	SetSize(width, height float32)
	ClientSize() (width, height float32)
}

// FrameStats reports what one frame did.
type FrameStats struct {
	Rendered int
	Culled   int
}

// Compositor owns the ordered scene list and the per-frame draw pass.
type Compositor struct {
	surface       Surface
	background    mgl32.Vec3
	scenes        []*scene.Descriptor
	maxPixelRatio float32
	log           *zap.Logger
}

// New creates a compositor. Scenes are drawn in the given order.
func New(surface Surface, background mgl32.Vec3, scenes ...*scene.Descriptor) *Compositor {
	return &Compositor{
		surface:       surface,
		background:    background,
		scenes:        scenes,
		maxPixelRatio: DefaultMaxPixelRatio,
		log:           logger.Named("compositor"),
	}
}

// SetMaxPixelRatio changes the pixel ratio cap applied on Resize.
func (c *Compositor) SetMaxPixelRatio(max float32) {
	c.maxPixelRatio = max
}

// Scenes returns the scenes in draw order.
func (c *Compositor) Scenes() []*scene.Descriptor {
	return c.scenes
}

// Frame renders every visible scene into its placeholder's region and
// advances the controls of the scenes it drew. Scenes whose placeholder
// is completely off the canvas are neither drawn nor updated.
func (c *Compositor) Frame() FrameStats {
	var stats FrameStats

	c.surface.SetClearColor(c.background)
	c.surface.SetScissorTest(true)
	c.surface.Clear()

	width, height := c.surface.ClientSize()
	for _, d := range c.scenes {
		rect := d.Placeholder.BoundingClientRect()
		if viewport.Offscreen(rect, width, height) {
			stats.Culled++
			continue
		}

		region := viewport.RegionFor(rect, height)
		c.surface.SetViewport(region)
		c.surface.SetScissor(region)
		c.surface.Render(d)
		d.Controls.Update()
		stats.Rendered++
	}

	return stats
}

// Resize refits every camera to its placeholder and resizes the surface.
// Calling it twice with the same arguments has no further effect.
func (c *Compositor) Resize(width, height, devicePixelRatio float32) {
	for _, d := range c.scenes {
		d.Resize()
	}
	ratio := viewport.ClampPixelRatio(devicePixelRatio, c.maxPixelRatio)
	c.surface.SetPixelRatio(ratio)
	c.surface.SetSize(width, height)

	c.log.Debug("resized",
		zap.Float32("width", width),
		zap.Float32("height", height),
		zap.Float32("pixel_ratio", ratio),
	)
}
