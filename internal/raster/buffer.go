// Package raster holds the immutable 8-bit grids that back terrain height and
// normal data, and the bilinear sampler that reads them.
package raster

import (
	"errors"
	"fmt"

	"github.com/Faultbox/quadterrain/pkg/math"
)

// Channel layouts supported by Buffer.
const (
	HeightChannels = 1
	NormalChannels = 4
)

var (
	ErrInvalidBuffer      = errors.New("invalid raster buffer")
	ErrUnsupportedFormat  = errors.New("unsupported raster format")
	ErrResolutionMismatch = errors.New("raster resolution mismatch")
)

// Buffer is a square, row-major grid of unsigned 8-bit samples. Row 0 is v=0
// and column 0 is u=0. A Buffer is never mutated after construction, so it can
// be shared by any number of tiles without locking.
type Buffer struct {
	data       []byte
	resolution int
	channels   int
}

// NewBuffer wraps data as a resolution x resolution grid with the given
// channel count. The slice is retained, not copied; callers must not modify it.
func NewBuffer(data []byte, resolution, channels int) (*Buffer, error) {
	if resolution < 1 {
		return nil, fmt.Errorf("%w: resolution %d", ErrInvalidBuffer, resolution)
	}
	if channels != HeightChannels && channels != NormalChannels {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidBuffer, channels)
	}
	if want := resolution * resolution * channels; len(data) != want {
		return nil, fmt.Errorf("%w: expected %d bytes for %dx%dx%d, got %d",
			ErrInvalidBuffer, want, resolution, resolution, channels, len(data))
	}
	return &Buffer{data: data, resolution: resolution, channels: channels}, nil
}

// Resolution returns R, the width and height of the grid.
func (b *Buffer) Resolution() int { return b.resolution }

// Channels returns the number of bytes per texel.
func (b *Buffer) Channels() int { return b.channels }

// Bytes returns the underlying samples. The slice must be treated as read-only.
func (b *Buffer) Bytes() []byte { return b.data }

// Texel returns the raw value of one channel at integer coordinates, clamped
// to the grid.
func (b *Buffer) Texel(x, y, channel int) uint8 {
	x = clampIndex(x, b.resolution-1)
	y = clampIndex(y, b.resolution-1)
	return b.data[(y*b.resolution+x)*b.channels+channel]
}

// Sample bilinearly samples channel 0 at (u, v).
func (b *Buffer) Sample(u, v float64) float64 {
	return Sample(u, v, b.data, b.resolution, b.channels, 0)
}

// SampleVec3 samples channels 0..2 of a normal buffer at (u, v).
func (b *Buffer) SampleVec3(u, v float64) [3]float64 {
	return SampleVec3(u, v, b.data, b.resolution)
}

// NormalAt samples and decodes the unit normal stored at (u, v).
func (b *Buffer) NormalAt(u, v float64) math.Vec3 {
	return DecodeNormal(b.SampleVec3(u, v))
}
