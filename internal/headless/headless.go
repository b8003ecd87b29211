// Package headless drives a render loop from a ticker instead of a window.
package headless

import (
	"context"
	"fmt"
	"time"

	"spinshapes/internal/logging"
	"spinshapes/internal/render"
	"spinshapes/internal/shaders"
)

// Config controls the no-window runner.
type Config struct {
	Hz    int
	Ticks uint64 // 0 runs until ctx is done
}

// Run starts loop and renders one frame per tick at cfg.Hz until ctx is
// cancelled, cfg.Ticks frames have been drawn, or a frame fails.
func Run(ctx context.Context, loop *render.Loop, src shaders.Source, cfg Config) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	return run(ctx, loop, src, t.C, cfg.Ticks)
}

func run(ctx context.Context, loop *render.Loop, src shaders.Source, ticks <-chan time.Time, limit uint64) error {
	var q render.FrameQueue
	if err := loop.Start(&q, src); err != nil {
		return err
	}

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticks:
			q.Dispatch(now)
			if err := loop.Err(); err != nil {
				return err
			}
			tick++
			if limit > 0 && tick >= limit {
				logging.Logger().Info("headless run finished", "frames", loop.Frames(), "angles", loop.Angles())
				return nil
			}
		}
	}
}
