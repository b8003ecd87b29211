package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"spinshapes/internal/camera"
	"spinshapes/internal/scene"
)

// DefaultPath is read by Get when present in the working directory
const DefaultPath = "spinshapes.json"

// Backend names
const (
	BackendGL   = "gl"
	BackendWGPU = "wgpu"
)

// Config holds application configuration
type Config struct {
	Window    Window    `json:"window"`
	Rendering Rendering `json:"rendering"`
	Scene     Scene     `json:"scene"`
	Shaders   Shaders   `json:"shaders"`
	Logging   Logging   `json:"logging"`
	Headless  Headless  `json:"headless"`
}

// Window contains desktop window parameters
type Window struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Title  string `json:"title"`

	// VSync swaps on vertical blank (GL backend)
	VSync bool `json:"vsync"`
}

// Rendering contains projection and backend parameters
type Rendering struct {
	// Backend selects the desktop GPU API: "gl" or "wgpu"
	Backend string `json:"backend"`

	// FieldOfView is the vertical field of view in degrees
	FieldOfView float32 `json:"field_of_view"`
	Near        float32 `json:"near"`
	Far         float32 `json:"far"`

	// ClearColor is RGBA in 0-1
	ClearColor [4]float64 `json:"clear_color"`
}

// Scene selects what is drawn. Objects, when set, override Name.
type Scene struct {
	Name    string             `json:"name"`
	Objects []scene.ObjectSpec `json:"objects,omitempty"`
}

// Shaders points at shader sources on disk. Empty Dir uses the embedded ones.
type Shaders struct {
	Dir string `json:"dir"`
}

// Logging controls log output
type Logging struct {
	Level string `json:"level"`
}

// Headless controls the no-window runner
type Headless struct {
	Hz    int    `json:"hz"`
	Ticks uint64 `json:"ticks"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Window: Window{
			Width:  camera.DefaultWidth,
			Height: camera.DefaultHeight,
			Title:  "spinshapes",
			VSync:  true,
		},
		Rendering: Rendering{
			Backend:     BackendGL,
			FieldOfView: camera.DefaultFieldOfView,
			Near:        camera.DefaultNear,
			Far:         camera.DefaultFar,
			ClearColor:  [4]float64{0, 0, 0, 1}, // opaque black
		},
		Scene: Scene{
			Name: "shapes",
		},
		Logging: Logging{
			Level: "info",
		},
		Headless: Headless{
			Hz: 60,
		},
	}
}

// Get returns the global configuration instance
func Get() *Config {
	mu.RLock()
	cfg := instance
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}

	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = DefaultConfig()
		// Try to load from file
		if data, err := os.ReadFile(DefaultPath); err == nil {
			json.Unmarshal(data, instance)
		}
	}
	return instance
}

// Load loads configuration from a file over the defaults and validates it
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

// Set replaces the global configuration. Nil makes the next Get reload defaults
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Save saves a configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the renderer cannot use
func (c *Config) Validate() error {
	switch strings.ToLower(c.Rendering.Backend) {
	case BackendGL, BackendWGPU:
	default:
		return fmt.Errorf("unknown backend %q", c.Rendering.Backend)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Rendering.Near <= 0 || c.Rendering.Far <= c.Rendering.Near {
		return fmt.Errorf("invalid clipping planes near=%v far=%v", c.Rendering.Near, c.Rendering.Far)
	}
	if c.Rendering.FieldOfView <= 0 || c.Rendering.FieldOfView >= 180 {
		return fmt.Errorf("invalid field of view %v", c.Rendering.FieldOfView)
	}
	if c.Headless.Hz <= 0 {
		return fmt.Errorf("invalid headless hz %d", c.Headless.Hz)
	}
	if _, err := c.BuildScene(); err != nil {
		return err
	}
	return nil
}

// BuildScene returns the configured scene
func (c *Config) BuildScene() (*scene.Scene, error) {
	if len(c.Scene.Objects) > 0 {
		name := c.Scene.Name
		if name == "" {
			name = "custom"
		}
		return scene.FromSpecs(name, c.Scene.Objects)
	}
	return scene.Lookup(c.Scene.Name)
}

// Camera returns a camera built from the window and projection settings
func (c *Config) Camera() *camera.Camera {
	return camera.NewCamera(c.Rendering.FieldOfView, c.Window.Width, c.Window.Height, c.Rendering.Near, c.Rendering.Far)
}
