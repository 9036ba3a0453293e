package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/multiscene/internal/assets"
	"github.com/Faultbox/multiscene/internal/config"
	"github.com/Faultbox/multiscene/internal/engine/camera"
	"github.com/Faultbox/multiscene/internal/engine/model"
	"github.com/Faultbox/multiscene/internal/engine/scene"
	"github.com/Faultbox/multiscene/internal/engine/texture"
	"github.com/Faultbox/multiscene/internal/page"
	"github.com/Faultbox/multiscene/pkg/colorutil"
)

// findContainer returns the canvas host element the scenes render into.
func findContainer(p *page.Page, id string) (*page.Element, error) {
	el := p.GetElementByID(id)
	if el == nil {
		return nil, fmt.Errorf("no container element with id %q", id)
	}
	return el, nil
}

// preloadPaths lists the distinct files worth reading ahead of the first
// frame: binary models and environment maps. Text glTF is left out, it
// is opened from disk with its buffers.
func preloadPaths(scenes []config.SceneConfig) []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}
	for _, sc := range scenes {
		if strings.EqualFold(filepath.Ext(sc.Model.Path), ".glb") {
			add(sc.Model.Path)
		}
		add(sc.Environment)
	}
	return paths
}

// BuildScenes creates one descriptor per configured scene, bound to its
// placeholder on the page. Scenes are returned in configuration order.
func BuildScenes(scenes []config.SceneConfig, p *page.Page) ([]*scene.Descriptor, error) {
	out := make([]*scene.Descriptor, 0, len(scenes))
	for _, sc := range scenes {
		d, err := buildScene(sc, p)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", sc.Name, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func buildScene(sc config.SceneConfig, p *page.Page) (*scene.Descriptor, error) {
	matches := p.QuerySelectorAll(sc.Selector)
	if sc.Index < 0 || sc.Index >= len(matches) {
		return nil, fmt.Errorf("no element %d with class %q (found %d)", sc.Index, sc.Selector, len(matches))
	}
	el := matches[sc.Index]

	lights, err := buildLights(sc.Lights)
	if err != nil {
		return nil, err
	}

	w, h := el.ClientSize()
	aspect := float32(1)
	if h > 0 {
		aspect = w / h
	}
	cam := camera.NewPerspective(sc.Camera.FOV, aspect, sc.Camera.Near, sc.Camera.Far)
	if sc.Camera.Zoom > 0 {
		cam.Zoom = sc.Camera.Zoom
	}
	cam.Position = mgl32.Vec3(sc.Camera.Position)
	cam.UpdateProjection()

	controls := camera.NewOrbitControls(cam)
	controls.MinDistance = sc.Controls.MinDistance
	controls.MaxDistance = sc.Controls.MaxDistance
	controls.EnablePan = sc.Controls.EnablePan
	controls.EnableZoom = sc.Controls.EnableZoom
	controls.EnableDamping = sc.Controls.EnableDamping
	controls.AutoRotate = sc.Controls.AutoRotate
	controls.AutoRotateSpeed = sc.Controls.AutoRotateSpeed
	controls.Update()

	return scene.New(sc.Name, el, cam, controls, lights), nil
}

func buildLights(lc config.LightsConfig) (scene.Lights, error) {
	ambient, err := colorutil.ParseHex(lc.AmbientColor)
	if err != nil {
		return scene.Lights{}, fmt.Errorf("ambient color: %w", err)
	}
	directional, err := colorutil.ParseHex(lc.DirectionalColor)
	if err != nil {
		return scene.Lights{}, fmt.Errorf("directional color: %w", err)
	}
	return scene.Lights{
		AmbientColor:         ambient,
		AmbientIntensity:     lc.AmbientIntensity,
		DirectionalColor:     directional,
		DirectionalIntensity: lc.DirectionalIntensity,
		DirectionalPosition:  mgl32.Vec3(lc.DirectionalPosition),
	}, nil
}

// StartLoads requests the assets of one scene. Completion publishes content
// on the descriptor from the loader's goroutine; failures are recorded on
// the descriptor and logged. The returned channel closes once every
// request has settled.
func StartLoads(ctx context.Context, l *assets.Loader, d *scene.Descriptor, sc config.SceneConfig, log *zap.Logger) <-chan struct{} {
	var wg sync.WaitGroup
	log = log.With(zap.String("scene", d.Name))

	fail := func(err error) {
		d.SetLoadError(err)
		log.Error("asset load failed", zap.Error(err))
	}

	if sc.Model.Path != "" {
		wg.Add(1)
		overrides := scene.Overrides{
			Scale:    sc.Model.Scale,
			Position: sc.Model.Position,
			Rotation: sc.Model.Rotation,
		}
		l.LoadModel(ctx, sc.Model.Path).Then(func(m *model.Model, err error) {
			defer wg.Done()
			if err != nil {
				fail(err)
				return
			}
			d.SetContent(scene.NewContent(m, overrides))
			log.Info("model loaded",
				zap.String("path", sc.Model.Path),
				zap.String("root", m.RootName),
				zap.Int("vertices", len(m.Mesh.Vertices)),
				zap.Int("images", len(m.Images)),
			)
		})
	}

	if sc.Environment != "" {
		wg.Add(1)
		l.LoadEnvironment(ctx, sc.Environment).Then(func(env *texture.HDR, err error) {
			defer wg.Done()
			if err != nil {
				fail(err)
				return
			}
			d.SetEnvironment(env.AverageRadiance())
			log.Info("environment loaded", zap.String("path", sc.Environment))
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}
