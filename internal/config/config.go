// Package config handles application configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/multiscene/internal/page"
)

// Config holds all application settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Assets  AssetsConfig  `yaml:"assets"`
	Page    page.Layout   `yaml:"page"`
	Scenes  []SceneConfig `yaml:"scenes"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// RenderConfig holds shared rendering surface settings.
type RenderConfig struct {
	ClearColor    string  `yaml:"clear_color"`
	MaxPixelRatio float32 `yaml:"max_pixel_ratio"`
	ScrollStep    float32 `yaml:"scroll_step"`
	ScreenshotDir string  `yaml:"screenshot_dir"`
}

// AssetsConfig holds asset loading settings.
type AssetsConfig struct {
	BaseDir     string        `yaml:"base_dir"`
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// SceneConfig describes one scene and the placeholder it renders into.
type SceneConfig struct {
	Name string `yaml:"name"`

	// Placeholder selection: Selector is a class name, Index picks among matches.
	Selector string `yaml:"selector"`
	Index    int    `yaml:"index"`

	Camera   CameraConfig   `yaml:"camera"`
	Controls ControlsConfig `yaml:"controls"`
	Model    ModelConfig    `yaml:"model"`
	Lights   LightsConfig   `yaml:"lights"`

	// Environment is an optional equirectangular .hdr path under the asset base dir.
	Environment string `yaml:"environment"`
}

// CameraConfig holds perspective camera parameters.
type CameraConfig struct {
	FOV      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Zoom     float32    `yaml:"zoom"`
	Position [3]float32 `yaml:"position"`
}

// ControlsConfig holds orbit control parameters.
type ControlsConfig struct {
	MinDistance     float32 `yaml:"min_distance"`
	MaxDistance     float32 `yaml:"max_distance"`
	EnablePan       bool    `yaml:"enable_pan"`
	EnableZoom      bool    `yaml:"enable_zoom"`
	EnableDamping   bool    `yaml:"enable_damping"`
	AutoRotate      bool    `yaml:"auto_rotate"`
	AutoRotateSpeed float32 `yaml:"auto_rotate_speed"`
}

// ModelConfig names the model file and overrides its root transform.
type ModelConfig struct {
	Path     string      `yaml:"path"`
	Scale    *float32    `yaml:"scale,omitempty"`
	Position *[3]float32 `yaml:"position,omitempty"`
	Rotation *[3]float32 `yaml:"rotation,omitempty"` // Euler XYZ, radians
}

// LightsConfig holds the ambient and directional light of a scene.
type LightsConfig struct {
	AmbientColor         string     `yaml:"ambient_color"`
	AmbientIntensity     float32    `yaml:"ambient_intensity"`
	DirectionalColor     string     `yaml:"directional_color"`
	DirectionalIntensity float32    `yaml:"directional_intensity"`
	DirectionalPosition  [3]float32 `yaml:"directional_position"`
}

func ptr[T any](v T) *T { return &v }

func defaultControls() ControlsConfig {
	return ControlsConfig{
		MinDistance:     1,
		MaxDistance:     5,
		EnablePan:       false,
		EnableZoom:      false,
		EnableDamping:   true,
		AutoRotate:      true,
		AutoRotateSpeed: 3,
	}
}

// Default returns a Config with the stock three-scene page.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "multiscene",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Render: RenderConfig{
			ClearColor:    "#ffffff",
			MaxPixelRatio: 2,
			ScrollStep:    60,
			ScreenshotDir: "screenshots",
		},
		Assets: AssetsConfig{
			BaseDir:     "models",
			LoadTimeout: 30 * time.Second,
		},
		Page: page.DefaultLayout(),
		Scenes: []SceneConfig{
			{
				Name:     "scene-1",
				Selector: page.ClassSceneContainer,
				Index:    0,
				Camera:   CameraConfig{FOV: 40, Near: 0.1, Far: 100, Zoom: 1, Position: [3]float32{0, 0, 2}},
				Controls: defaultControls(),
				Model: ModelConfig{
					Path:     "scene-1.glb",
					Scale:    ptr[float32](15),
					Position: &[3]float32{0.3, 0, 0},
				},
				Lights: LightsConfig{
					AmbientColor: "#ffffff", AmbientIntensity: 10,
					DirectionalColor: "#ffffff", DirectionalIntensity: 1.5,
					DirectionalPosition: [3]float32{0, 1, 1},
				},
			},
			{
				Name:     "scene-2",
				Selector: page.ClassSceneContainer,
				Index:    1,
				Camera:   CameraConfig{FOV: 40, Near: 0.1, Far: 100, Zoom: 1, Position: [3]float32{0, 0, 2}},
				Controls: defaultControls(),
				Model: ModelConfig{
					Path:     "scene-2.glb",
					Scale:    ptr[float32](0.4),
					Rotation: &[3]float32{0.5, 0.7, 0},
				},
				Lights: LightsConfig{
					AmbientColor: "#ffffff", AmbientIntensity: 3,
					DirectionalColor: "#ffffff", DirectionalIntensity: 1.5,
					DirectionalPosition: [3]float32{1, 1, 1},
				},
			},
			{
				Name:     "full-width",
				Selector: page.ClassFullWidthScene,
				Camera:   CameraConfig{FOV: 75, Near: 0.1, Far: 100, Zoom: 2, Position: [3]float32{0, 2, 4}},
				Controls: defaultControls(),
				Model: ModelConfig{
					Path:     "full-width-scene/scene.gltf",
					Scale:    ptr[float32](0.022),
					Position: &[3]float32{0, 0, -1.8},
				},
				Lights: LightsConfig{
					AmbientColor: "#ffffff", AmbientIntensity: 10,
					DirectionalColor: "#ffffff", DirectionalIntensity: 5,
					DirectionalPosition: [3]float32{0, 0.5, 1},
				},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
