package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Kind selects how a source file is converted into a Buffer.
type Kind int

const (
	KindHeight Kind = iota // 1 channel, luminance
	KindNormal             // 4 channels, RGB = encoded XYZ
)

// Channels returns the channel count a buffer of this kind carries.
func (k Kind) Channels() int {
	if k == KindNormal {
		return NormalChannels
	}
	return HeightChannels
}

func (k Kind) String() string {
	if k == KindNormal {
		return "normal"
	}
	return "height"
}

// decoders maps a lower-case file extension to its image decoder. The tga
// package registers itself with an empty magic string, so image.Decode
// would sniff every file as TGA; decoders are picked by extension instead.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".tga":  tga.Decode,
	".webp": webp.Decode,
}

// Load reads a raster from disk. Files ending in .data or .raw are flat
// row-major 8-bit arrays; .png, .tga and .webp files are decoded as images.
func Load(path string, kind Kind) (*Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".data", ".raw":
		return LoadRaw(path, kind.Channels())
	default:
		return LoadImage(path, kind)
	}
}

// LoadRaw reads a flat square array with the given channel count. The
// resolution is derived from the file size.
func LoadRaw(path string, channels int) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raster: read %s: %w", path, err)
	}
	if channels <= 0 || len(data)%channels != 0 {
		return nil, fmt.Errorf("raster: %s: %w: %d bytes is not a multiple of %d channels",
			path, ErrResolutionMismatch, len(data), channels)
	}
	res := isqrt(len(data) / channels)
	if res*res*channels != len(data) {
		return nil, fmt.Errorf("raster: %s: %w: %d bytes is not a square grid",
			path, ErrResolutionMismatch, len(data))
	}
	return NewBuffer(data, res, channels)
}

// LoadImage decodes a PNG, TGA or WebP file, chosen by extension, and
// converts it with FromImage.
func LoadImage(path string, kind Kind) (*Buffer, error) {
	format := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("raster: %s: %w: extension %q", path, ErrUnsupportedFormat, format)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("raster: read %s: %w", path, err)
	}
	img, err := decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("raster: decode %s: %w: %v", path, ErrUnsupportedFormat, err)
	}
	buf, err := FromImage(img, kind)
	if err != nil {
		return nil, fmt.Errorf("raster: %s (%s): %w", path, format, err)
	}
	return buf, nil
}

// FromImage converts an image into a Buffer of the given kind. Non-square
// images are resampled to a square of the larger side.
func FromImage(img image.Image, kind Kind) (*Buffer, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidBuffer)
	}
	if b.Dx() != b.Dy() {
		side := max(b.Dx(), b.Dy())
		square := image.NewNRGBA(image.Rect(0, 0, side, side))
		draw.CatmullRom.Scale(square, square.Bounds(), img, b, draw.Src, nil)
		img = square
		b = square.Bounds()
	}

	res := b.Dx()
	channels := kind.Channels()
	data := make([]byte, res*res*channels)

	switch kind {
	case KindHeight:
		if gray, ok := img.(*image.Gray); ok {
			for y := 0; y < res; y++ {
				off := gray.PixOffset(b.Min.X, b.Min.Y+y)
				copy(data[y*res:(y+1)*res], gray.Pix[off:off+res])
			}
			break
		}
		for y := 0; y < res; y++ {
			for x := 0; x < res; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				data[y*res+x] = g.Y
			}
		}
	case KindNormal:
		for y := 0; y < res; y++ {
			for x := 0; x < res; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				i := (y*res + x) * NormalChannels
				data[i] = c.R
				data[i+1] = c.G
				data[i+2] = c.B
				data[i+3] = c.A
			}
		}
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedFormat, kind)
	}

	return NewBuffer(data, res, channels)
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
