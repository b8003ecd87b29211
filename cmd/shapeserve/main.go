package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"spinshapes/internal/logging"
	"spinshapes/internal/webserver"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address.")
	wasm := flag.String("wasm", "main.wasm", "Path to the GOOS=js GOARCH=wasm build of cmd/spinshapes-web.")
	wasmExec := flag.String("wasm-exec", webserver.DefaultWasmExec, "Path to wasm_exec.js.")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error.")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.NewText(os.Stderr, level)

	fmt.Printf("Serving spinshapes on http://localhost%s/\n", *addr)
	srv := webserver.NewServer(*addr, *wasm, *wasmExec)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
