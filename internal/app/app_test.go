package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/multiscene/internal/assets"
	"github.com/Faultbox/multiscene/internal/config"
	"github.com/Faultbox/multiscene/internal/engine/compositor"
	"github.com/Faultbox/multiscene/internal/engine/input"
	"github.com/Faultbox/multiscene/internal/engine/scene"
	"github.com/Faultbox/multiscene/internal/engine/viewport"
	"github.com/Faultbox/multiscene/internal/page"
)

type nullSurface struct {
	w, h  float32
	ratio float32
}

func (s *nullSurface) SetClearColor(mgl32.Vec3)        {}
func (s *nullSurface) SetScissorTest(bool)             {}
func (s *nullSurface) Clear()                          {}
func (s *nullSurface) SetViewport(viewport.Region)     {}
func (s *nullSurface) SetScissor(viewport.Region)      {}
func (s *nullSurface) Render(*scene.Descriptor)        {}
func (s *nullSurface) SetPixelRatio(r float32)         { s.ratio = r }
func (s *nullSurface) SetSize(w, h float32)            { s.w, s.h = w, h }
func (s *nullSurface) ClientSize() (float32, float32) { return s.w, s.h }

func defaultScenes(t *testing.T) (*config.Config, *page.Page, []*scene.Descriptor) {
	t.Helper()
	cfg := config.Default()
	p, err := page.New(cfg.Page, 1280, 720)
	if err != nil {
		t.Fatalf("page.New: %v", err)
	}
	scenes, err := BuildScenes(cfg.Scenes, p)
	if err != nil {
		t.Fatalf("BuildScenes: %v", err)
	}
	return cfg, p, scenes
}

func TestBuildScenesFromDefaults(t *testing.T) {
	cfg, p, scenes := defaultScenes(t)
	if len(scenes) != len(cfg.Scenes) {
		t.Fatalf("got %d scenes, want %d", len(scenes), len(cfg.Scenes))
	}

	cells := p.QuerySelectorAll(page.ClassSceneContainer)
	if scenes[0].Placeholder != cells[0] || scenes[1].Placeholder != cells[1] {
		t.Error("scene-container scenes bound to the wrong cells")
	}
	if scenes[2].Placeholder != p.QuerySelector(page.ClassFullWidthScene) {
		t.Error("full-width scene bound to the wrong element")
	}

	full := scenes[2]
	if full.Camera.FOV != 75 || full.Camera.Zoom != 2 {
		t.Errorf("full-width camera = fov %v zoom %v", full.Camera.FOV, full.Camera.Zoom)
	}
	w, h := full.Placeholder.ClientSize()
	if full.Camera.Aspect != w/h {
		t.Errorf("aspect = %v, want %v", full.Camera.Aspect, w/h)
	}
	if !full.Controls.AutoRotate || full.Controls.EnableZoom || full.Controls.EnablePan {
		t.Error("controls flags not applied")
	}
	if d := full.Controls.Distance(); d < 1 || d > 5 {
		t.Errorf("initial distance %v outside [1, 5]", d)
	}
	if full.Lights.AmbientIntensity != 10 || full.Lights.DirectionalIntensity != 5 {
		t.Errorf("lights = %+v", full.Lights)
	}
	if full.Lights.AmbientColor != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("ambient colour = %v", full.Lights.AmbientColor)
	}
}

func TestBuildScenesErrors(t *testing.T) {
	p, err := page.New(page.DefaultLayout(), 1280, 720)
	if err != nil {
		t.Fatalf("page.New: %v", err)
	}

	missing := config.Default().Scenes[0]
	missing.Index = 5
	if _, err := BuildScenes([]config.SceneConfig{missing}, p); err == nil {
		t.Error("expected error for out-of-range placeholder index")
	}

	badColor := config.Default().Scenes[0]
	badColor.Lights.AmbientColor = "white"
	if _, err := BuildScenes([]config.SceneConfig{badColor}, p); err == nil {
		t.Error("expected error for malformed light colour")
	}
}

func writeTriangle(t *testing.T, path string) {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: "root", Mesh: gltf.Index(0), Scale: [3]float64{1, 1, 1}, Rotation: [4]float64{0, 0, 0, 1}}}
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}
	doc.Scene = gltf.Index(0)
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
}

func waitSettled(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loads did not settle")
	}
}

func TestStartLoadsPublishesContent(t *testing.T) {
	dir := t.TempDir()
	writeTriangle(t, filepath.Join(dir, "scene-1.glb"))

	cfg, _, scenes := defaultScenes(t)
	loader := assets.NewLoader(dir, 5*time.Second)
	defer loader.Close()

	d := scenes[0]
	if d.Content() != nil {
		t.Fatal("content present before load")
	}
	waitSettled(t, StartLoads(context.Background(), loader, d, cfg.Scenes[0], zap.NewNop()))

	c := d.Content()
	if c == nil {
		t.Fatalf("content not published, load error: %v", d.LoadError())
	}
	if c.Transform.Scale != (mgl32.Vec3{15, 15, 15}) {
		t.Errorf("scale override not applied: %v", c.Transform.Scale)
	}
	if c.Transform.Translation != (mgl32.Vec3{0.3, 0, 0}) {
		t.Errorf("position override not applied: %v", c.Transform.Translation)
	}
	if d.LoadError() != nil {
		t.Errorf("unexpected load error: %v", d.LoadError())
	}
}

func TestStartLoadsRecordsFailure(t *testing.T) {
	cfg, _, scenes := defaultScenes(t)
	loader := assets.NewLoader(t.TempDir(), 5*time.Second)
	defer loader.Close()

	sc := cfg.Scenes[1]
	sc.Environment = "missing.hdr"
	d := scenes[1]
	waitSettled(t, StartLoads(context.Background(), loader, d, sc, zap.NewNop()))

	if d.Content() != nil {
		t.Error("content published for a missing model")
	}
	err := d.LoadError()
	if !errors.Is(err, assets.ErrAssetLoad) {
		t.Fatalf("LoadError = %v, want ErrAssetLoad", err)
	}
	var le *assets.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("LoadError is %T", err)
	}
	if _, ok := d.Environment(); ok {
		t.Error("environment set for a missing file")
	}
}

func newController(t *testing.T) (*controller, *page.Page, []*scene.Descriptor, *nullSurface) {
	t.Helper()
	cfg, p, scenes := defaultScenes(t)
	surface := &nullSurface{w: 1280, h: 720, ratio: 1}
	comp := compositor.New(surface, mgl32.Vec3{1, 1, 1}, scenes...)
	return &controller{
		page:       p,
		compositor: comp,
		pixelRatio: func() float32 { return 3 },
		scrollStep: cfg.Render.ScrollStep,
	}, p, scenes, surface
}

func TestControllerScrollAndKeys(t *testing.T) {
	c, p, _, _ := newController(t)

	// Wheel over empty page area scrolls the page.
	c.handle(input.Event{Type: input.EventMouseMove, MouseX: 2, MouseY: 2})
	c.handle(input.Event{Type: input.EventScroll, Scroll: -2})
	if p.ScrollY() != 2*c.scrollStep {
		t.Errorf("ScrollY = %v, want %v", p.ScrollY(), 2*c.scrollStep)
	}

	c.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_END})
	if p.ScrollY() != p.MaxScroll() {
		t.Errorf("End: ScrollY = %v, want %v", p.ScrollY(), p.MaxScroll())
	}
	c.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_HOME})
	if p.ScrollY() != 0 {
		t.Errorf("Home: ScrollY = %v", p.ScrollY())
	}

	if !c.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_ESCAPE}) {
		t.Error("Escape should request exit")
	}
	if !c.handle(input.Event{Type: input.EventQuit}) {
		t.Error("quit should request exit")
	}

	c.handle(input.Event{Type: input.EventKeyDown, Key: sdl.SCANCODE_F12})
	if !c.takeScreenshot() || c.takeScreenshot() {
		t.Error("screenshot request should be taken exactly once")
	}
}

func TestControllerDragRotatesSceneUnderCursor(t *testing.T) {
	c, p, scenes, _ := newController(t)

	// Bring the first scene cell into view and press inside it.
	cell := scenes[0].Placeholder.(*page.Element)
	p.ScrollTo(p.ScrollY() + cell.BoundingClientRect().Top - 10)
	r := cell.BoundingClientRect()
	x, y := int(r.Left+20), int(r.Top+20)

	scenes[0].Controls.AutoRotate = false
	before := scenes[0].Camera.Position
	other := scenes[1].Camera.Position

	c.handle(input.Event{Type: input.EventMouseDown, Button: sdl.BUTTON_LEFT, MouseX: x, MouseY: y})
	if c.dragging != scenes[0] {
		t.Fatalf("dragging %v, want first scene", c.dragging)
	}
	c.handle(input.Event{Type: input.EventMouseMove, MouseX: x + 40, MouseY: y, DeltaX: 40})
	scenes[0].Controls.Update()
	c.handle(input.Event{Type: input.EventMouseUp, Button: sdl.BUTTON_LEFT})

	if scenes[0].Camera.Position == before {
		t.Error("drag did not rotate the scene")
	}
	if scenes[1].Camera.Position != other {
		t.Error("drag leaked into another scene")
	}
	if c.dragging != nil {
		t.Error("drag not released")
	}
}

func TestControllerResize(t *testing.T) {
	c, p, scenes, surface := newController(t)

	c.handle(input.Event{Type: input.EventWindowResize, Width: 800, Height: 600})

	if w, h := p.ViewportSize(); w != 800 || h != 600 {
		t.Errorf("page viewport = %vx%v", w, h)
	}
	if surface.w != 800 || surface.h != 600 {
		t.Errorf("surface size = %vx%v", surface.w, surface.h)
	}
	if surface.ratio != compositor.DefaultMaxPixelRatio {
		t.Errorf("pixel ratio = %v, want clamped to %v", surface.ratio, compositor.DefaultMaxPixelRatio)
	}
	for _, d := range scenes {
		w, h := d.Placeholder.ClientSize()
		if d.Camera.Aspect != w/h {
			t.Errorf("%s: aspect %v, want %v", d.Name, d.Camera.Aspect, w/h)
		}
	}
}

func TestFindContainer(t *testing.T) {
	cfg, p, _ := defaultScenes(t)

	el, err := findContainer(p, cfg.Page.ContainerID)
	if err != nil {
		t.Fatalf("findContainer(%q): %v", cfg.Page.ContainerID, err)
	}
	if el != p.Container() {
		t.Error("findContainer should return the fixed canvas host")
	}

	if _, err := findContainer(p, "no-such-canvas"); err == nil {
		t.Error("expected error for a missing container id")
	}
}

func TestPreloadPaths(t *testing.T) {
	scenes := config.Default().Scenes
	scenes[1].Environment = "sky.hdr"
	scenes = append(scenes, config.SceneConfig{
		Model:       config.ModelConfig{Path: "scene-1.glb"},
		Environment: "sky.hdr",
	})

	got := preloadPaths(scenes)
	want := []string{"scene-1.glb", "scene-2.glb", "sky.hdr"}
	if len(got) != len(want) {
		t.Fatalf("preloadPaths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("preloadPaths[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
