package lodmap

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
)

// Format is an output image encoding.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

var ErrUnknownFormat = errors.New("unknown image format")

// ParseFormat accepts "png" or "webp" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case PNG, WebP:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks the format from a file extension, defaulting to PNG.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return WebP
	}
	return PNG
}

// Encode writes img to w in the given format. WebP output is lossless.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Save writes img to path, creating parent directories.
func Save(path string, img image.Image, format Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := Encode(file, img, format); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return file.Close()
}

// Capturer saves images under timestamped names in one directory.
type Capturer struct {
	outputDir string
	prefix    string
	format    Format
	now       func() time.Time
}

// NewCapturer creates a capturer writing <prefix>_<timestamp>.<format> files.
func NewCapturer(outputDir, prefix string, format Format) *Capturer {
	return &Capturer{
		outputDir: outputDir,
		prefix:    prefix,
		format:    format,
		now:       time.Now,
	}
}

// Filename returns the name the next capture would be written to.
func (c *Capturer) Filename() string {
	timestamp := c.now().Format("2006-01-02_15-04-05.000")
	name := fmt.Sprintf("%s_%s.%s", c.prefix, timestamp, c.format)
	if c.outputDir != "" {
		name = filepath.Join(c.outputDir, name)
	}
	return name
}

// Capture saves img and returns the file name.
func (c *Capturer) Capture(img image.Image) (string, error) {
	name := c.Filename()
	if err := Save(name, img, c.format); err != nil {
		return "", err
	}
	return name, nil
}

// CaptureFromPixels saves bottom-up RGBA rows, as read back from an OpenGL
// framebuffer, flipping them into image order.
func (c *Capturer) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return c.Capture(img)
}
