package app

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/multiscene/internal/engine/compositor"
	"github.com/Faultbox/multiscene/internal/engine/input"
	"github.com/Faultbox/multiscene/internal/engine/scene"
	"github.com/Faultbox/multiscene/internal/page"
)

// controller routes input events to the page, the compositor and the
// controls of the scene under the cursor. It runs on the frame loop only.
type controller struct {
	page       *page.Page
	compositor *compositor.Compositor
	pixelRatio func() float32
	scrollStep float32

	mouseX, mouseY float32
	dragging       *scene.Descriptor
	panning        *scene.Descriptor
	screenshot     bool
}

// handle applies one event. It returns true when the viewer should exit.
func (c *controller) handle(e input.Event) bool {
	switch e.Type {
	case input.EventQuit:
		return true

	case input.EventWindowResize:
		c.resize(float32(e.Width), float32(e.Height))

	case input.EventKeyDown:
		return c.key(e.Key)

	case input.EventScroll:
		c.scroll(e.Scroll)

	case input.EventMouseDown:
		c.mouseX, c.mouseY = float32(e.MouseX), float32(e.MouseY)
		switch e.Button {
		case sdl.BUTTON_LEFT:
			c.dragging = c.sceneAt(c.mouseX, c.mouseY)
		case sdl.BUTTON_RIGHT:
			c.panning = c.sceneAt(c.mouseX, c.mouseY)
		}

	case input.EventMouseUp:
		switch e.Button {
		case sdl.BUTTON_LEFT:
			c.dragging = nil
		case sdl.BUTTON_RIGHT:
			c.panning = nil
		}

	case input.EventMouseMove:
		c.mouseX, c.mouseY = float32(e.MouseX), float32(e.MouseY)
		if c.dragging != nil {
			_, h := c.dragging.Placeholder.ClientSize()
			c.dragging.Controls.HandleDrag(float32(e.DeltaX), float32(e.DeltaY), h)
		}
		if c.panning != nil {
			_, h := c.panning.Placeholder.ClientSize()
			c.panning.Controls.HandlePan(float32(e.DeltaX), float32(e.DeltaY), h)
		}
	}
	return false
}

func (c *controller) key(code sdl.Scancode) bool {
	_, vh := c.page.ViewportSize()
	switch code {
	case sdl.SCANCODE_ESCAPE:
		return true
	case sdl.SCANCODE_F12:
		c.screenshot = true
	case sdl.SCANCODE_PAGEDOWN, sdl.SCANCODE_SPACE:
		c.page.ScrollBy(vh * 0.9)
	case sdl.SCANCODE_PAGEUP:
		c.page.ScrollBy(-vh * 0.9)
	case sdl.SCANCODE_DOWN:
		c.page.ScrollBy(c.scrollStep)
	case sdl.SCANCODE_UP:
		c.page.ScrollBy(-c.scrollStep)
	case sdl.SCANCODE_HOME:
		c.page.ScrollTo(0)
	case sdl.SCANCODE_END:
		c.page.ScrollTo(c.page.MaxScroll())
	}
	return false
}

// scroll zooms the scene under the cursor when it accepts zoom, and
// scrolls the page otherwise. Positive amounts are wheel-up.
func (c *controller) scroll(amount float32) {
	if d := c.sceneAt(c.mouseX, c.mouseY); d != nil && d.Controls.EnableZoom {
		d.Controls.HandleZoom(amount)
		return
	}
	c.page.ScrollBy(-amount * c.scrollStep)
}

func (c *controller) resize(width, height float32) {
	c.page.SetViewportSize(width, height)
	c.compositor.Resize(width, height, c.pixelRatio())
}

// sceneAt returns the topmost scene whose placeholder contains the point.
func (c *controller) sceneAt(x, y float32) *scene.Descriptor {
	scenes := c.compositor.Scenes()
	for i := len(scenes) - 1; i >= 0; i-- {
		if scenes[i].Placeholder.BoundingClientRect().Contains(x, y) {
			return scenes[i]
		}
	}
	return nil
}

// takeScreenshot reports and clears a pending screenshot request.
func (c *controller) takeScreenshot() bool {
	s := c.screenshot
	c.screenshot = false
	return s
}
