//go:build js && wasm

package main

import (
	"fmt"
	"log/slog"
	"os"

	"spinshapes/internal/logging"
	"spinshapes/internal/web"
)

func main() {
	logging.NewText(os.Stderr, slog.LevelInfo)

	sc, err := web.SceneFromQuery()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	if _, _, err := web.Start(sc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	// Frames run from requestAnimationFrame callbacks
	select {}
}
