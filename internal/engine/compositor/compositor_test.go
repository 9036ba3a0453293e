package compositor

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/multiscene/internal/engine/camera"
	"github.com/Faultbox/multiscene/internal/engine/model"
	"github.com/Faultbox/multiscene/internal/engine/scene"
	"github.com/Faultbox/multiscene/internal/engine/viewport"
	"github.com/Faultbox/multiscene/internal/page"
)

type draw struct {
	name       string
	viewport   viewport.Region
	scissor    viewport.Region
	hasContent bool
}

// recorder is a Surface that records calls instead of drawing.
type recorder struct {
	width, height float32
	ratio         float32
	clearColor    mgl32.Vec3
	scissorTest   bool
	clears        int
	calls         []string

	viewport viewport.Region
	scissor  viewport.Region
	draws    []draw
}

func newRecorder(w, h float32) *recorder {
	return &recorder{width: w, height: h, ratio: 1}
}

func (r *recorder) SetClearColor(c mgl32.Vec3) {
	r.clearColor = c
	r.calls = append(r.calls, "clearColor")
}

func (r *recorder) SetScissorTest(enabled bool) {
	r.scissorTest = enabled
	r.calls = append(r.calls, "scissorTest")
}

func (r *recorder) Clear() {
	r.clears++
	r.calls = append(r.calls, "clear")
}

func (r *recorder) SetViewport(reg viewport.Region) { r.viewport = reg }
func (r *recorder) SetScissor(reg viewport.Region)  { r.scissor = reg }

func (r *recorder) Render(d *scene.Descriptor) {
	r.draws = append(r.draws, draw{
		name:       d.Name,
		viewport:   r.viewport,
		scissor:    r.scissor,
		hasContent: d.Content() != nil,
	})
	r.calls = append(r.calls, "render")
}

func (r *recorder) SetPixelRatio(ratio float32) { r.ratio = ratio }

func (r *recorder) SetSize(w, h float32) {
	r.width, r.height = w, h
}

func (r *recorder) ClientSize() (float32, float32) { return r.width, r.height }

type fixed struct{ rect viewport.Rect }

func (f *fixed) BoundingClientRect() viewport.Rect { return f.rect }
func (f *fixed) ClientSize() (float32, float32)    { return f.rect.Width(), f.rect.Height() }

func newScene(name string, p page.Placeholder) *scene.Descriptor {
	cam := camera.NewPerspective(40, 1, 0.1, 100)
	cam.Position = mgl32.Vec3{0, 0, 5}
	controls := camera.NewOrbitControls(cam)
	controls.AutoRotate = true
	return scene.New(name, p, cam, controls, scene.Lights{})
}

func TestFrameSkipsOffscreenScenes(t *testing.T) {
	surface := newRecorder(800, 600)
	a := newScene("a", &fixed{viewport.Rect{Left: 0, Top: 0, Right: 400, Bottom: 300}})
	b := newScene("b", &fixed{viewport.Rect{Left: 400, Top: 300, Right: 800, Bottom: 600}})
	off := newScene("off", &fixed{viewport.Rect{Left: 0, Top: 700, Right: 800, Bottom: 900}})

	c := New(surface, mgl32.Vec3{1, 1, 1}, a, off, b)
	stats := c.Frame()

	if stats.Rendered != 2 || stats.Culled != 1 {
		t.Fatalf("stats = %+v, want 2 rendered, 1 culled", stats)
	}
	if len(surface.draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(surface.draws))
	}

	want := []draw{
		{name: "a", viewport: viewport.Region{Left: 0, Bottom: 300, Width: 400, Height: 300}},
		{name: "b", viewport: viewport.Region{Left: 400, Bottom: 0, Width: 400, Height: 300}},
	}
	for i, w := range want {
		got := surface.draws[i]
		if got.name != w.name {
			t.Errorf("draw %d: scene %q, want %q", i, got.name, w.name)
		}
		if got.viewport != w.viewport {
			t.Errorf("draw %d: viewport %+v, want %+v", i, got.viewport, w.viewport)
		}
		if got.scissor != got.viewport {
			t.Errorf("draw %d: scissor %+v differs from viewport %+v", i, got.scissor, got.viewport)
		}
	}

	if surface.clearColor != (mgl32.Vec3{1, 1, 1}) || !surface.scissorTest {
		t.Errorf("surface state: clear %v scissor %v", surface.clearColor, surface.scissorTest)
	}
	if surface.calls[0] != "clearColor" || surface.calls[1] != "scissorTest" || surface.calls[2] != "clear" {
		t.Errorf("frame prologue = %v", surface.calls[:3])
	}
}

func TestFrameWithNothingVisible(t *testing.T) {
	surface := newRecorder(800, 600)
	c := New(surface, mgl32.Vec3{}, newScene("below", &fixed{viewport.Rect{Top: 601, Bottom: 900, Right: 100}}))

	stats := c.Frame()
	if stats.Rendered != 0 || len(surface.draws) != 0 {
		t.Errorf("expected no draws, got %+v", stats)
	}
	if surface.clears != 1 {
		t.Errorf("clears = %d, want 1", surface.clears)
	}

	empty := New(surface, mgl32.Vec3{})
	empty.Frame()
	if surface.clears != 2 {
		t.Error("compositor without scenes should still clear")
	}
}

func TestFrameTouchingEdgesAreVisible(t *testing.T) {
	surface := newRecorder(800, 600)
	c := New(surface, mgl32.Vec3{},
		newScene("top", &fixed{viewport.Rect{Top: -100, Bottom: 0, Right: 100}}),
		newScene("bottom", &fixed{viewport.Rect{Top: 600, Bottom: 700, Right: 100}}),
		newScene("right", &fixed{viewport.Rect{Left: 800, Right: 900, Bottom: 100}}),
	)
	if stats := c.Frame(); stats.Rendered != 3 {
		t.Errorf("rendered %d, want 3", stats.Rendered)
	}
}

func TestControlsUpdateOnlyWhenVisible(t *testing.T) {
	surface := newRecorder(800, 600)
	placeholder := &fixed{viewport.Rect{Right: 400, Bottom: 300}}
	d := newScene("s", placeholder)
	c := New(surface, mgl32.Vec3{}, d)

	c.Frame()
	visible := d.Camera.Position

	placeholder.rect = placeholder.rect.Translate(0, 1000)
	for range 10 {
		c.Frame()
	}
	if d.Camera.Position != visible {
		t.Errorf("offscreen scene moved: %v -> %v", visible, d.Camera.Position)
	}

	placeholder.rect = placeholder.rect.Translate(0, -1000)
	c.Frame()
	if d.Camera.Position == visible {
		t.Error("visible auto-rotating scene did not move")
	}
}

func TestContentAppearsAfterLoad(t *testing.T) {
	surface := newRecorder(800, 600)
	d := newScene("late", &fixed{viewport.Rect{Right: 800, Bottom: 600}})
	c := New(surface, mgl32.Vec3{}, d)

	m := &model.Model{Root: model.IdentityTransform(), Mesh: &model.Mesh{}}
	for frame := range 100 {
		if frame == 50 {
			d.SetContent(scene.NewContent(m, scene.Overrides{}))
		}
		c.Frame()
	}

	if len(surface.draws) != 100 {
		t.Fatalf("got %d draws, want 100", len(surface.draws))
	}
	for i, dr := range surface.draws {
		if want := i >= 50; dr.hasContent != want {
			t.Fatalf("frame %d: hasContent = %v, want %v", i, dr.hasContent, want)
		}
	}
}

func TestResizeIsIdempotent(t *testing.T) {
	surface := newRecorder(800, 600)
	placeholder := &fixed{viewport.Rect{Right: 600, Bottom: 300}}
	d := newScene("s", placeholder)
	c := New(surface, mgl32.Vec3{}, d)

	c.Resize(1024, 768, 3)
	aspect, proj := d.Camera.Aspect, d.Camera.Projection()
	ratio := surface.ratio

	c.Resize(1024, 768, 3)
	if d.Camera.Aspect != aspect || d.Camera.Projection() != proj || surface.ratio != ratio {
		t.Error("second resize changed state")
	}
	if aspect != 2 {
		t.Errorf("aspect = %f, want 2", aspect)
	}
	if ratio != DefaultMaxPixelRatio {
		t.Errorf("pixel ratio = %f, want %d", ratio, DefaultMaxPixelRatio)
	}
	if w, h := surface.ClientSize(); w != 1024 || h != 768 {
		t.Errorf("size = %fx%f", w, h)
	}

	c.SetMaxPixelRatio(4)
	c.Resize(1024, 768, 3)
	if surface.ratio != 3 {
		t.Errorf("pixel ratio with raised cap = %f, want 3", surface.ratio)
	}
}

func TestFrameFollowsPageScroll(t *testing.T) {
	p, err := page.New(page.DefaultLayout(), 1280, 720)
	if err != nil {
		t.Fatalf("page.New: %v", err)
	}
	surface := newRecorder(1280, 720)

	var scenes []*scene.Descriptor
	for i, el := range p.QuerySelectorAll("scene-container") {
		scenes = append(scenes, newScene(fmt.Sprintf("cell-%d", i), el))
	}
	full := p.QuerySelector("full-width-scene")
	if full == nil || len(scenes) == 0 {
		t.Fatal("default layout is missing placeholders")
	}
	scenes = append(scenes, newScene("full", full))
	c := New(surface, mgl32.Vec3{}, scenes...)

	for y := float32(0); y <= p.MaxScroll(); y += 40 {
		p.ScrollTo(y)
		surface.draws = surface.draws[:0]
		c.Frame()

		visible := 0
		for _, d := range scenes {
			if !viewport.Offscreen(d.Placeholder.BoundingClientRect(), 1280, 720) {
				visible++
			}
		}
		if len(surface.draws) != visible {
			t.Fatalf("scroll %v: %d draws, %d visible", y, len(surface.draws), visible)
		}
		for _, dr := range surface.draws {
			if dr.scissor != dr.viewport {
				t.Fatalf("scroll %v: scissor/viewport mismatch for %s", y, dr.name)
			}
		}
	}
}
