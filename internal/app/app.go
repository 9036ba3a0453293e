// Package app wires the window, the shared render context, the page and
// the scenes into a running viewer.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/multiscene/internal/assets"
	"github.com/Faultbox/multiscene/internal/config"
	"github.com/Faultbox/multiscene/internal/engine/compositor"
	"github.com/Faultbox/multiscene/internal/engine/debug"
	"github.com/Faultbox/multiscene/internal/engine/frameloop"
	"github.com/Faultbox/multiscene/internal/engine/input"
	"github.com/Faultbox/multiscene/internal/engine/renderer"
	"github.com/Faultbox/multiscene/internal/engine/scene"
	"github.com/Faultbox/multiscene/internal/engine/window"
	"github.com/Faultbox/multiscene/internal/logger"
	"github.com/Faultbox/multiscene/internal/page"
	"github.com/Faultbox/multiscene/pkg/colorutil"
)

var _ compositor.Surface = (*renderer.Context)(nil)

// App is the running viewer.
type App struct {
	cfg *config.Config
	log *zap.Logger

	window      *window.Window
	renderer    *renderer.Context
	input       *input.Input
	page        *page.Page
	compositor  *compositor.Compositor
	loader      *assets.Loader
	screenshots *debug.Screenshots
	ctl         *controller

	loaded <-chan struct{}
}

// New creates the window and GL context, lays out the page, builds every
// scene and starts loading their assets.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg: cfg,
		log: logger.Named("app"),
	}

	background, err := colorutil.ParseHex(cfg.Render.ClearColor)
	if err != nil {
		return nil, fmt.Errorf("render.clear_color: %w", err)
	}

	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w, h := a.window.Size()
	width, height := float32(w), float32(h)

	// The render context needs the GL context the window just created.
	a.renderer, err = renderer.New(width, height)
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.page, err = page.New(cfg.Page, width, height)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("page layout: %w", err)
	}
	if _, err := findContainer(a.page, cfg.Page.ContainerID); err != nil {
		a.Close()
		return nil, fmt.Errorf("page layout: %w", err)
	}

	scenes, err := BuildScenes(cfg.Scenes, a.page)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.compositor = compositor.New(a.renderer, background, scenes...)
	a.compositor.SetMaxPixelRatio(cfg.Render.MaxPixelRatio)
	a.compositor.Resize(width, height, a.window.PixelRatio())

	a.input = input.New()
	a.screenshots = debug.NewScreenshots(cfg.Render.ScreenshotDir, "multiscene")
	a.ctl = &controller{
		page:       a.page,
		compositor: a.compositor,
		pixelRatio: a.window.PixelRatio,
		scrollStep: cfg.Render.ScrollStep,
	}

	a.loader = assets.NewLoader(cfg.Assets.BaseDir, cfg.Assets.LoadTimeout)
	a.preload()
	a.loaded = a.startLoads(scenes)

	a.log.Info("viewer initialized",
		zap.Int("scenes", len(scenes)),
		zap.Float32("content_height", a.page.ContentHeight()),
		zap.String("assets", cfg.Assets.BaseDir),
	)
	return a, nil
}

// preload reads the scenes' model and environment files into the loader
// cache. A failure is only logged; the load that needs the file reports it
// again on its scene.
func (a *App) preload() {
	paths := preloadPaths(a.cfg.Scenes)
	if len(paths) == 0 {
		return
	}
	ctx := context.Background()
	if a.cfg.Assets.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Assets.LoadTimeout)
		defer cancel()
	}
	start := time.Now()
	if err := a.loader.Preload(ctx, paths...); err != nil {
		a.log.Warn("preload incomplete", zap.Error(err))
		return
	}
	a.log.Debug("assets preloaded", zap.Int("files", len(paths)), zap.Duration("took", time.Since(start)))
}

func (a *App) startLoads(scenes []*scene.Descriptor) <-chan struct{} {
	ctx := context.Background()
	pending := make([]<-chan struct{}, len(scenes))
	for i, d := range scenes {
		pending[i] = StartLoads(ctx, a.loader, d, a.cfg.Scenes[i], a.log)
	}

	all := make(chan struct{})
	go func() {
		for _, p := range pending {
			<-p
		}
		close(all)
	}()
	return all
}

// Run drives the frame loop until ctx is cancelled, the window is closed
// or Escape is pressed.
func (a *App) Run(ctx context.Context) error {
	loop := &frameloop.Loop{
		Tick: a.tick,
		Sync: a.window.SwapBuffers,
	}

	a.log.Info("starting frame loop")
	start := time.Now()
	err := loop.Run(ctx)
	a.log.Info("frame loop stopped",
		zap.Int("frames", loop.Frames()),
		zap.Duration("uptime", time.Since(start)),
	)
	return err
}

func (a *App) tick(time.Duration) error {
	if a.input.Update() {
		return frameloop.ErrStop
	}
	for _, e := range a.input.Events() {
		if a.ctl.handle(e) {
			return frameloop.ErrStop
		}
	}

	select {
	case <-a.loaded:
		a.reportLoads()
	default:
	}

	if err := a.renderer.BeginFrame(); err != nil {
		return err
	}
	a.compositor.Frame()

	if a.ctl.takeScreenshot() {
		a.capture()
	}
	a.renderer.Present(a.window.DrawableSize())
	return nil
}

// reportLoads logs the outcome of the initial loads once.
func (a *App) reportLoads() {
	a.loaded = nil
	failed := 0
	for _, d := range a.compositor.Scenes() {
		if d.LoadError() != nil {
			failed++
		}
	}
	hits, misses := a.loader.Stats()
	a.log.Info("initial assets settled",
		zap.Int("failed", failed),
		zap.Int("cache_hits", hits),
		zap.Int("cache_misses", misses),
	)
}

func (a *App) capture() {
	pixels, w, h := a.renderer.ReadPixels()
	path, err := a.screenshots.SavePixels(pixels, w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases the loader, the render context and the window.
func (a *App) Close() {
	a.log.Info("closing viewer")
	if a.loader != nil {
		a.loader.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
