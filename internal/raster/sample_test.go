package raster

import (
	gomath "math"
	"testing"
)

func approx(a, b float64) bool {
	return gomath.Abs(a-b) < 1e-9
}

// gradient returns an R x R height grid with value x + y*R at (x, y).
func gradient(res int) []byte {
	buf := make([]byte, res*res)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

func TestSampleCorners(t *testing.T) {
	buf := gradient(8)

	if got := Sample(0, 0, buf, 8, 1, 0); got != float64(buf[0]) {
		t.Errorf("Sample(0,0) = %v, want first texel %d", got, buf[0])
	}
	if got := Sample(1, 1, buf, 8, 1, 0); got != float64(buf[len(buf)-1]) {
		t.Errorf("Sample(1,1) = %v, want last texel %d", got, buf[len(buf)-1])
	}
	if got := Sample(1, 0, buf, 8, 1, 0); got != 7 {
		t.Errorf("Sample(1,0) = %v, want 7", got)
	}
	if got := Sample(0, 1, buf, 8, 1, 0); got != 56 {
		t.Errorf("Sample(0,1) = %v, want 56", got)
	}
}

func TestSampleHalfTexelInset(t *testing.T) {
	// R=2: half texel = 0.25, weight = 0.25 + f*0.5.
	buf := []byte{0, 100, 200, 40}

	tests := []struct {
		name string
		u, v float64
		want float64
	}{
		{"midpoint along u", 0.5, 0, 50},
		{"quarter along u", 0.25, 0, 37.5},
		{"three quarters along u", 0.75, 0, 62.5},
		{"midpoint along v", 0, 0.5, 100},
		// rows: top=50, bottom=120, weight 0.5 -> 85
		{"centre", 0.5, 0.5, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sample(tt.u, tt.v, buf, 2, 1, 0); !approx(got, tt.want) {
				t.Errorf("Sample(%v,%v) = %v, want %v", tt.u, tt.v, got, tt.want)
			}
		})
	}
}

func TestSampleExactTexels(t *testing.T) {
	buf := gradient(5)
	// u = i/(R-1) lands exactly on texel i: floor == ceil, no weighting.
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			got := Sample(float64(x)/4, float64(y)/4, buf, 5, 1, 0)
			if want := float64(buf[y*5+x]); got != want {
				t.Errorf("Sample at texel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestSampleClampsOutOfRange(t *testing.T) {
	buf := gradient(4)

	tests := []struct {
		name       string
		u, v       float64
		cu, cv     float64
		wasClamped bool
	}{
		{"inside", 0.5, 0.5, 0.5, 0.5, false},
		{"negative", -0.25, -3, 0, 0, true},
		{"beyond one", 1.5, 2, 1, 1, true},
		{"NaN", gomath.NaN(), 0.5, 0, 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cu, cv, clamped := ClampUV(tt.u, tt.v)
			if cu != tt.cu || cv != tt.cv || clamped != tt.wasClamped {
				t.Errorf("ClampUV(%v,%v) = (%v,%v,%v), want (%v,%v,%v)",
					tt.u, tt.v, cu, cv, clamped, tt.cu, tt.cv, tt.wasClamped)
			}
			// Must not panic and must equal the clamped sample.
			if got, want := Sample(tt.u, tt.v, buf, 4, 1, 0), Sample(tt.cu, tt.cv, buf, 4, 1, 0); got != want {
				t.Errorf("Sample(%v,%v) = %v, want clamped %v", tt.u, tt.v, got, want)
			}
		})
	}
}

func TestSampleStrideOffset(t *testing.T) {
	// 2x2, 4 channels; channel c of texel i holds i*10 + c.
	buf := make([]byte, 2*2*4)
	for i := 0; i < 4; i++ {
		for c := 0; c < 4; c++ {
			buf[i*4+c] = byte(i*10 + c)
		}
	}

	for c := 0; c < 3; c++ {
		if got := Sample(1, 1, buf, 2, 4, c); got != float64(30+c) {
			t.Errorf("channel %d at (1,1) = %v, want %d", c, got, 30+c)
		}
	}

	got := SampleVec3(0, 0, buf, 2)
	want := [3]float64{0, 1, 2}
	if got != want {
		t.Errorf("SampleVec3(0,0) = %v, want %v", got, want)
	}
}

func TestDecodeNormal(t *testing.T) {
	tests := []struct {
		name string
		in   [3]float64
		want [3]float32
	}{
		// Texture "up" is the third channel; the engine's up is Y.
		{"texture z up", [3]float64{127.5, 127.5, 255}, [3]float32{0, 1, 0}},
		{"texture y", [3]float64{127.5, 255, 127.5}, [3]float32{0, 0, 1}},
		{"negative x", [3]float64{0, 127.5, 127.5}, [3]float32{-1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeNormal(tt.in).Array()
			for i := range got {
				if gomath.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("DecodeNormal(%v) = %v, want %v", tt.in, got, tt.want)
					break
				}
			}
		})
	}
}

func TestDecodeNormalIsUnit(t *testing.T) {
	n := DecodeNormal([3]float64{200, 30, 180})
	if l := n.Length(); l < 0.999 || l > 1.001 {
		t.Errorf("decoded normal length = %v, want ~1", l)
	}
}

// The inset weight runs from 0.5/R to 1-0.5/R between texels, so the sample
// steps by 0.5/R of the texel difference on either side of a texel centre.
func TestSampleStepsAtTexelCentres(t *testing.T) {
	const res = 4
	buf := make([]byte, res*res)
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			buf[y*res+x] = byte(x * 40)
		}
	}

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"below", 1 - 1e-9, 35},
		{"centre", 1, 40},
		{"above", 1 + 1e-9, 45},
	}

	for _, tt := range tests {
		got := Sample(tt.x/(res-1), 0, buf, res, 1, 0)
		if gomath.Abs(got-tt.want) > 1e-6 {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
