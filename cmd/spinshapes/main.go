package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"spinshapes/internal/app"
	"spinshapes/internal/config"
	"spinshapes/internal/gpu"
	"spinshapes/internal/headless"
	"spinshapes/internal/logging"
	"spinshapes/internal/render"
	"spinshapes/internal/shaders"
)

func main() {
	var (
		configPath  string
		backend     string
		sceneName   string
		logLevel    string
		runHeadless bool
		hz          int
		ticks       uint64
	)
	flag.StringVar(&configPath, "config", "", "JSON config file (default "+config.DefaultPath+" if present).")
	flag.StringVar(&backend, "backend", "", "GPU backend: gl or wgpu.")
	flag.StringVar(&sceneName, "scene", "", "Built-in scene: shapes or triangle.")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error.")
	flag.BoolVar(&runHeadless, "headless", false, "Run without a window against a recording device.")
	flag.IntVar(&hz, "hz", 0, "Tick rate in headless mode.")
	flag.Uint64Var(&ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fail(err)
	}

	// Flags override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Rendering.Backend = backend
		case "scene":
			cfg.Scene.Name = sceneName
			cfg.Scene.Objects = nil
		case "log-level":
			cfg.Logging.Level = logLevel
		case "hz":
			cfg.Headless.Hz = hz
		case "ticks":
			cfg.Headless.Ticks = ticks
		}
	})
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fail(err)
	}
	logging.NewText(os.Stderr, level)

	provider := shaders.Embedded()
	if cfg.Shaders.Dir != "" {
		provider = shaders.Fallback(shaders.Dir(cfg.Shaders.Dir), shaders.Embedded())
	}

	if runHeadless {
		if err := runHeadlessMode(cfg, provider); err != nil && !errors.Is(err, context.Canceled) {
			fail(err)
		}
		return
	}

	fmt.Println("spinshapes")
	fmt.Println("Controls:")
	fmt.Println("  Mouse wheel : Field of view")
	fmt.Println("  Escape / Q  : Exit")
	fmt.Println()

	application, err := app.New(cfg)
	if err != nil {
		fail(err)
	}
	defer application.Cleanup()

	src, err := provider.Load(application.Language())
	if err != nil {
		application.Cleanup()
		fail(err)
	}
	if err := application.Run(src); err != nil {
		application.Cleanup()
		fail(err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Get(), nil
	}
	return config.Load(path)
}

func runHeadlessMode(cfg *config.Config, provider shaders.Provider) error {
	sc, err := cfg.BuildScene()
	if err != nil {
		return err
	}
	src, err := provider.Load(shaders.WGSL)
	if err != nil {
		return err
	}

	c := cfg.Rendering.ClearColor
	dev := gpu.NewRecorder(gpu.WithWGSLValidation())
	defer dev.Release()
	loop := render.New(dev, sc,
		render.WithCamera(cfg.Camera()),
		render.WithClearColor(gpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return headless.Run(ctx, loop, src, headless.Config{Hz: cfg.Headless.Hz, Ticks: cfg.Headless.Ticks})
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
