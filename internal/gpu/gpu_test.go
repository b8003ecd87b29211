package gpu

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestParsePrimitive(t *testing.T) {
	tests := []struct {
		in      string
		want    Primitive
		wantErr bool
	}{
		{"triangles", Triangles, false},
		{"triangle_list", Triangles, false},
		{"Triangle-Strip", TriangleStrip, false},
		{"trianglefan", TriangleFan, false},
		{"points", Points, false},
		{"line_strip", LineStrip, false},
		{"quads", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrimitive(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrimitive(%q) err = %v", tt.in, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePrimitive(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrimitiveJSON(t *testing.T) {
	var v struct {
		Kind Primitive `json:"kind"`
	}
	if err := json.Unmarshal([]byte(`{"kind":"triangle_fan"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.Kind != TriangleFan {
		t.Errorf("Kind = %v, want %v", v.Kind, TriangleFan)
	}
	if Primitive(42).Valid() {
		t.Error("Primitive(42) should be invalid")
	}
	if got := Primitive(42).String(); got != "Primitive(42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestFanIndices(t *testing.T) {
	tests := []struct {
		n    int
		want []uint32
	}{
		{2, nil},
		{3, []uint32{0, 1, 2}},
		{5, []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}},
	}
	for _, tt := range tests {
		if got := FanIndices(tt.n); !slices.Equal(got, tt.want) {
			t.Errorf("FanIndices(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
	if got := len(FanIndices(182)); got != 180*3 {
		t.Errorf("len(FanIndices(182)) = %d, want %d", got, 180*3)
	}
}

func TestFlatten(t *testing.T) {
	got := FlattenVec3([]mgl32.Vec3{{1, 2, 3}, {4, 5, 6}})
	if !slices.Equal(got, []float32{1, 2, 3, 4, 5, 6}) {
		t.Errorf("FlattenVec3 = %v", got)
	}
	got = FlattenVec4([]mgl32.Vec4{{1, 2, 3, 4}})
	if !slices.Equal(got, []float32{1, 2, 3, 4}) {
		t.Errorf("FlattenVec4 = %v", got)
	}
}
