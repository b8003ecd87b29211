// Package shaders supplies vertex/fragment source pairs to the render loop.
// Sources come from the embedded assets, a directory on disk, or HTML
// markup carrying <script type="x-shader/..."> elements.
package shaders

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed assets
var assets embed.FS

// Language is a shading language a backend consumes.
type Language int

const (
	// GLSL is desktop GLSL 4.10 core.
	GLSL Language = iota
	// GLSLES is GLSL ES 1.00 for WebGL.
	GLSLES
	// WGSL is the WebGPU shading language.
	WGSL
)

func (l Language) String() string {
	switch l {
	case GLSL:
		return "glsl"
	case GLSLES:
		return "glsl-es"
	case WGSL:
		return "wgsl"
	}
	return fmt.Sprintf("Language(%d)", int(l))
}

// Default script ids in index.html.
const (
	VertexScriptID   = "shader-vs"
	FragmentScriptID = "shader-fs"
)

// IndexFile is the markup file holding GLSL ES sources.
const IndexFile = "index.html"

const baseName = "color"

var ErrNotFound = errors.New("shaders: source not found")

// Source is a vertex/fragment pair in one language.
type Source struct {
	Language Language
	Vertex   string
	Fragment string
}

// Provider loads a source pair for a language.
type Provider interface {
	Load(lang Language) (Source, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(lang Language) (Source, error)

func (f ProviderFunc) Load(lang Language) (Source, error) { return f(lang) }

type embedded struct{}

// Embedded returns the sources compiled into the binary.
func Embedded() Provider { return embedded{} }

func (embedded) Load(lang Language) (Source, error) {
	if lang == GLSLES {
		data, err := assets.ReadFile("assets/" + IndexFile)
		if err != nil {
			return Source{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return Markup(bytes.NewReader(data), VertexScriptID, FragmentScriptID)
	}
	ext, err := extension(lang)
	if err != nil {
		return Source{}, err
	}
	vs, err := assets.ReadFile("assets/" + baseName + ".vert." + ext)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	fs, err := assets.ReadFile("assets/" + baseName + ".frag." + ext)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return Source{Language: lang, Vertex: string(vs), Fragment: string(fs)}, nil
}

// IndexHTML returns the embedded web page.
func IndexHTML() []byte {
	data, err := assets.ReadFile("assets/" + IndexFile)
	if err != nil {
		panic(err)
	}
	return data
}

type dir string

// Dir reads color.vert.<ext>/color.frag.<ext> from path, and index.html for
// GLSL ES.
func Dir(path string) Provider { return dir(path) }

func (d dir) Load(lang Language) (Source, error) {
	if lang == GLSLES {
		f, err := os.Open(filepath.Join(string(d), IndexFile))
		if err != nil {
			return Source{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		defer f.Close()
		return Markup(f, VertexScriptID, FragmentScriptID)
	}
	ext, err := extension(lang)
	if err != nil {
		return Source{}, err
	}
	vs, err := os.ReadFile(filepath.Join(string(d), baseName+".vert."+ext))
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	fs, err := os.ReadFile(filepath.Join(string(d), baseName+".frag."+ext))
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return Source{Language: lang, Vertex: string(vs), Fragment: string(fs)}, nil
}

// Fallback tries each provider in order and returns the first pair found.
func Fallback(providers ...Provider) Provider {
	return ProviderFunc(func(lang Language) (Source, error) {
		var errs []error
		for _, p := range providers {
			src, err := p.Load(lang)
			if err == nil {
				return src, nil
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return Source{}, ErrNotFound
		}
		return Source{}, errors.Join(errs...)
	})
}

func extension(lang Language) (string, error) {
	switch lang {
	case GLSL:
		return "glsl", nil
	case WGSL:
		return "wgsl", nil
	}
	return "", fmt.Errorf("shaders: no file extension for %v", lang)
}
