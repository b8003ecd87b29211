package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	s, err := cfg.BuildScene()
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "shapes" || len(s.Objects) != 3 {
		t.Errorf("scene = %s with %d objects", s.Name, len(s.Objects))
	}
	if a := cfg.Camera().Aspect(); a != float32(640)/480 {
		t.Errorf("aspect = %v", a)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	const doc = `{
		"window": {"width": 800, "height": 600},
		"rendering": {"backend": "wgpu"},
		"scene": {"name": "triangle"}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Set(nil) })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window.Width != 800 || cfg.Rendering.Backend != BackendWGPU {
		t.Errorf("got %+v", cfg)
	}
	if cfg.Rendering.Far != 100 {
		t.Errorf("Far = %v, default not kept", cfg.Rendering.Far)
	}
	if Get() != cfg {
		t.Error("Get() does not return the loaded config")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `{"window":`},
		{"backend", `{"rendering": {"backend": "vulkan"}}`},
		{"planes", `{"rendering": {"near": 5, "far": 1}}`},
		{"scene", `{"scene": {"name": "cube"}}`},
		{"objects", `{"scene": {"objects": [{"shape": "square"}]}}`},
		{"size", `{"window": {"width": 0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.json")
			if err := os.WriteFile(path, []byte(tt.doc), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	s, err := cfg.BuildScene()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Scene.Objects = s.Specs()
	cfg.Rendering.ClearColor = [4]float64{0.1, 0.2, 0.3, 1}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() { Set(nil) })

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Rendering.ClearColor != cfg.Rendering.ClearColor {
		t.Errorf("ClearColor = %v", got.Rendering.ClearColor)
	}
	built, err := got.BuildScene()
	if err != nil {
		t.Fatal(err)
	}
	if len(built.Objects) != 3 || built.Objects[2].Shape.Len() != 182 {
		t.Errorf("round-tripped scene = %+v", built.Objects)
	}
}
