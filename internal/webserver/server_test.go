package webserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	wasm := filepath.Join(dir, "main.wasm")
	if err := os.WriteFile(wasm, []byte("\x00asm\x01\x00\x00\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	exec := filepath.Join(dir, "wasm_exec.js")
	if err := os.WriteFile(exec, []byte("class Go {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(NewServer(":0", wasm, exec).Handler())
	t.Cleanup(ts.Close)
	return ts, dir
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestServesPageAndAssets(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html", `id="glcanvas"`},
		{"/index.html", http.StatusOK, "text/html", `id="shader-vs"`},
		{"/main.wasm", http.StatusOK, "application/wasm", "asm"},
		{"/wasm_exec.js", http.StatusOK, "text/javascript", "class Go"},
		{"/missing.png", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(body, tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestMissingWasm(t *testing.T) {
	ts := httptest.NewServer(NewServer(":0", filepath.Join(t.TempDir(), "nope.wasm"), "").Handler())
	defer ts.Close()

	resp, _ := get(t, ts.URL+"/main.wasm")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestScenes(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/scenes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var scenes []SceneInfo
	if err := json.Unmarshal([]byte(body), &scenes); err != nil {
		t.Fatalf("decode: %v\n%s", err, body)
	}
	counts := map[string]int{}
	for _, s := range scenes {
		counts[s.Name] = len(s.Objects)
	}
	if counts["shapes"] != 3 || counts["triangle"] != 1 {
		t.Errorf("scene object counts = %v", counts)
	}
	if !strings.Contains(body, `"triangle_fan"`) {
		t.Errorf("primitives not encoded by name: %s", body)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/scenes", nil)
	pr, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	pr.Body.Close()
	if pr.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", pr.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var h map[string]string
	if err := json.Unmarshal([]byte(body), &h); err != nil {
		t.Fatal(err)
	}
	if h["status"] != "ok" {
		t.Errorf("status = %q", h["status"])
	}
}
