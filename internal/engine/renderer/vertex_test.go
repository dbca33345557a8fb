package renderer

import (
	"testing"
	"unsafe"

	"github.com/Faultbox/quadterrain/internal/quadtree"
)

func TestVertexLayout(t *testing.T) {
	if vertexStride != 48 {
		t.Errorf("expected 48-byte vertices, got %d", vertexStride)
	}

	// Attributes must be tightly packed floats in location order.
	var offset uintptr
	for i, a := range vertexAttributes {
		if a.location != uint32(i) {
			t.Errorf("attribute %d has location %d", i, a.location)
		}
		if a.offset != offset {
			t.Errorf("attribute %d: expected offset %d, got %d", i, offset, a.offset)
		}
		offset += uintptr(a.size) * unsafe.Sizeof(float32(0))
	}
	if int32(offset) != vertexStride {
		t.Errorf("expected attributes to cover %d bytes, got %d", vertexStride, offset)
	}
}

func TestRendererIsScene(t *testing.T) {
	var _ quadtree.Scene = (*Renderer)(nil)
}
