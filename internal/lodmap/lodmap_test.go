package lodmap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/webp"

	"github.com/Faultbox/quadterrain/internal/quadtree"
	"github.com/Faultbox/quadterrain/internal/raster"
	"github.com/Faultbox/quadterrain/pkg/math"
)

func newTree(t *testing.T) *quadtree.QuadTree {
	t.Helper()
	height, err := raster.NewBuffer(make([]byte, 8*8), 8, raster.HeightChannels)
	if err != nil {
		t.Fatalf("failed to create buffer: %v", err)
	}
	opts := quadtree.DefaultOptions()
	opts.Height = height
	opts.TileResolution = 3
	q, err := quadtree.New(opts)
	if err != nil {
		t.Fatalf("failed to create quadtree: %v", err)
	}
	t.Cleanup(q.Close)
	return q
}

func TestRenderRootOnly(t *testing.T) {
	q := newTree(t)
	img := Render(q, Options{Size: 64})

	red := color.NRGBA{R: 255, A: 255}
	for _, p := range []image.Point{{0, 0}, {32, 32}, {63, 63}} {
		if got := img.NRGBAAt(p.X, p.Y); got != red {
			t.Errorf("pixel %v: expected %v, got %v", p, red, got)
		}
	}
}

func TestRenderQuadrants(t *testing.T) {
	q := newTree(t)
	// Split the root, then the +X/+Z quadrant.
	if err := q.Root().Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}
	if err := q.Root().Children()[3].Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}

	img := Render(q, Options{Size: 64, Borders: true})

	depth1 := color.NRGBA{R: 191, G: 64, A: 255}
	depth2 := color.NRGBA{R: 128, G: 128, A: 255}
	if got := img.NRGBAAt(16, 16); got != depth1 {
		t.Errorf("expected depth-1 colour in the first quadrant, got %v", got)
	}
	if got := img.NRGBAAt(40, 40); got != depth2 {
		t.Errorf("expected depth-2 colour in the last quadrant, got %v", got)
	}
	if got := img.NRGBAAt(32, 10); got != borderColor {
		t.Errorf("expected a border between quadrants, got %v", got)
	}
}

func TestRenderViewer(t *testing.T) {
	q := newTree(t)
	viewer := math.Vec3{X: 0, Y: 30, Z: 0}
	img := Render(q, Options{Size: 64, Viewer: &viewer})

	if got := img.NRGBAAt(32, 32); got != viewerColor {
		t.Errorf("expected viewer mark at the centre, got %v", got)
	}

	outside := math.Vec3{X: 1000}
	img = Render(q, Options{Size: 64, Viewer: &outside})
	if got := img.NRGBAAt(63, 32); got == viewerColor {
		t.Error("expected no mark for a viewer off the map")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	q := newTree(t)
	if err := q.Root().Subdivide(q.MaxDepth()); err != nil {
		t.Fatalf("subdivide failed: %v", err)
	}
	img := Render(q, Options{Size: 32})

	decoders := map[Format]func(io.Reader) (image.Image, error){
		PNG:  png.Decode,
		WebP: webp.Decode,
	}
	for _, format := range []Format{PNG, WebP} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, img, format); err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			decoded, err := decoders[format](&buf)
			if err != nil {
				t.Fatalf("decode %s failed: %v", format, err)
			}
			if decoded.Bounds() != img.Bounds() {
				t.Fatalf("expected bounds %v, got %v", img.Bounds(), decoded.Bounds())
			}
			r1, g1, b1, _ := img.At(8, 8).RGBA()
			r2, g2, b2, _ := decoded.At(8, 8).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 {
				t.Errorf("expected lossless pixel, got (%d,%d,%d) want (%d,%d,%d)", r2, g2, b2, r1, g1, b1)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	if f, err := ParseFormat("WEBP"); err != nil || f != WebP {
		t.Errorf("expected webp, got %q (%v)", f, err)
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if f := FormatFromPath("out/map.WebP"); f != WebP {
		t.Errorf("expected webp from extension, got %s", f)
	}
	if f := FormatFromPath("map"); f != PNG {
		t.Errorf("expected png default, got %s", f)
	}
	if err := Encode(&bytes.Buffer{}, image.NewNRGBA(image.Rect(0, 0, 1, 1)), "bmp"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestCapturer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	c := NewCapturer(dir, "lod", PNG)
	c.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	want := filepath.Join(dir, "lod_2026-03-04_05-06-07.000.png")
	if got := c.Filename(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	// Two rows, bottom-up: red below green.
	pixels := []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
	}
	name, err := c.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	f, err := os.Open(name)
	if err != nil {
		t.Fatalf("failed to open capture: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode capture: %v", err)
	}
	if r, g, _, _ := img.At(0, 0).RGBA(); r != 0 || g != 0xffff {
		t.Errorf("expected green on top after flip, got r=%d g=%d", r, g)
	}

	if _, err := c.CaptureFromPixels(pixels, 2, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}
