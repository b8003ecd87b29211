package shaders

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// MIME types of inline shader scripts.
const (
	TypeVertex   = "x-shader/x-vertex"
	TypeFragment = "x-shader/x-fragment"
)

var ErrScriptType = errors.New("shaders: unknown script type")

// Script is one inline shader element.
type Script struct {
	ID   string
	Type string
	Text string
}

// Stage reports which stage the script's type declares.
func (s Script) Stage() (string, error) {
	switch s.Type {
	case TypeVertex:
		return "vertex", nil
	case TypeFragment:
		return "fragment", nil
	}
	return "", fmt.Errorf("%w: %q on #%s", ErrScriptType, s.Type, s.ID)
}

// Scripts parses an HTML document and returns every <script> element that
// has an id, keyed by id. The text of a script is the concatenation of its
// text children.
func Scripts(r io.Reader) (map[string]Script, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}
	out := make(map[string]Script)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			s := Script{ID: attr(n, "id"), Type: attr(n, "type")}
			if s.ID != "" {
				var sb strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						sb.WriteString(c.Data)
					}
				}
				s.Text = sb.String()
				out[s.ID] = s
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

// Markup extracts a GLSL ES pair from the scripts with the given ids. Each
// script's type must match the stage it is used for.
func Markup(r io.Reader, vertexID, fragmentID string) (Source, error) {
	scripts, err := Scripts(r)
	if err != nil {
		return Source{}, err
	}
	vs, err := pick(scripts, vertexID, TypeVertex)
	if err != nil {
		return Source{}, err
	}
	fs, err := pick(scripts, fragmentID, TypeFragment)
	if err != nil {
		return Source{}, err
	}
	return Source{Language: GLSLES, Vertex: vs, Fragment: fs}, nil
}

func pick(scripts map[string]Script, id, want string) (string, error) {
	s, ok := scripts[id]
	if !ok {
		return "", fmt.Errorf("%w: no script #%s", ErrNotFound, id)
	}
	if _, err := s.Stage(); err != nil {
		return "", err
	}
	if s.Type != want {
		return "", fmt.Errorf("%w: #%s is %q, want %q", ErrScriptType, id, s.Type, want)
	}
	return s.Text, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
