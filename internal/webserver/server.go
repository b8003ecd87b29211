package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"spinshapes/internal/logging"
	"spinshapes/internal/scene"
	"spinshapes/internal/shaders"
)

// DefaultWasmExec is where Go ships the wasm support script.
var DefaultWasmExec = filepath.Join(runtime.GOROOT(), "lib", "wasm", "wasm_exec.js")

// Server serves the browser build: the page, the wasm binary and Go's
// wasm_exec.js loader.
type Server struct {
	addr     string
	wasm     string
	wasmExec string
	index    []byte
	started  time.Time
	server   *http.Server
}

// NewServer creates a server for the wasm binary at wasmPath. An empty
// wasmExecPath uses the one from the local Go installation.
func NewServer(addr, wasmPath, wasmExecPath string) *Server {
	if wasmExecPath == "" {
		wasmExecPath = DefaultWasmExec
	}
	return &Server{
		addr:     addr,
		wasm:     wasmPath,
		wasmExec: wasmExecPath,
		index:    shaders.IndexHTML(),
		started:  time.Now(),
	}
}

// Handler returns the routing for every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/main.wasm", s.handleFile(s.wasm, "application/wasm"))
	mux.HandleFunc("/wasm_exec.js", s.handleFile(s.wasmExec, "text/javascript; charset=utf-8"))
	mux.HandleFunc("/scenes", s.handleScenes)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens until Stop is called
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Logger().Info("web server starting", "addr", s.addr, "wasm", s.wasm)
	return s.server.ListenAndServe()
}

// Stop stops the server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/"+shaders.IndexFile {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.index)
}

func (s *Server) handleFile(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := os.Open(path)
		if err != nil {
			logging.Logger().Warn("asset unavailable", "path", path, "err", err)
			http.Error(w, fmt.Sprintf("%s not available", filepath.Base(path)), http.StatusNotFound)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			http.Error(w, "Failed to stat asset", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
	}
}

// SceneInfo describes one built-in scene
type SceneInfo struct {
	Name    string             `json:"name"`
	Objects []scene.ObjectSpec `json:"objects"`
}

func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names := scene.Names()
	out := make([]SceneInfo, 0, len(names))
	for _, name := range names {
		sc, err := scene.Lookup(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out = append(out, SceneInfo{Name: sc.Name, Objects: sc.Specs()})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}
