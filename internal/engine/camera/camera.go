// Package camera provides the viewers that drive terrain level of detail.
package camera

import (
	gomath "math"

	"github.com/Faultbox/quadterrain/internal/config"
	"github.com/Faultbox/quadterrain/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // vertical angle, radians
	Yaw      float32 // horizontal angle, radians
	FOV      float32 // vertical field of view, degrees

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera from the configured start values.
func NewOrbitCamera(cfg config.CameraConfig) *OrbitCamera {
	c := &OrbitCamera{
		Distance:        cfg.Distance,
		Pitch:           cfg.Pitch,
		Yaw:             cfg.Yaw,
		FOV:             cfg.FOV,
		MinDistance:     cfg.MinDistance,
		MaxDistance:     cfg.MaxDistance,
		MinPitch:        0.05,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
	c.Pitch = clamp(c.Pitch, c.MinPitch, c.MaxPitch)
	c.Distance = clamp(c.Distance, c.MinDistance, c.MaxDistance)
	return c
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	pitch, yaw := float64(c.Pitch), float64(c.Yaw)
	offset := math.Vec3{
		X: c.Distance * float32(gomath.Cos(pitch)*gomath.Sin(yaw)),
		Y: c.Distance * float32(gomath.Sin(pitch)),
		Z: c.Distance * float32(gomath.Cos(pitch)*gomath.Cos(yaw)),
	}
	return c.Center.Add(offset)
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{X: 0, Y: 1, Z: 0})
}

// ProjectionMatrix returns a perspective projection whose clip planes follow
// the orbit distance, so zooming in does not lose depth precision.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	near := max(c.Distance*0.01, 0.05)
	far := c.Distance*4 + c.MaxDistance
	fov := c.FOV * gomath.Pi / 180
	return math.Perspective(fov, aspect, near, far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+deltaY*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the center point relative to the current yaw.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	sin := float32(gomath.Sin(float64(c.Yaw)))
	cos := float32(gomath.Cos(float64(c.Yaw)))

	// Forward points away from the camera, into the scene.
	c.Center.X += (-sin*forward + cos*right) * speed
	c.Center.Z += (-cos*forward - sin*right) * speed
	c.Center.Y += up * speed
}

// FitToBounds centres the camera on a box and backs off far enough to see it.
func (c *OrbitCamera) FitToBounds(b math.Box3) {
	c.Center = b.Center()
	size := b.Size()
	c.Distance = clamp(max(size.X, size.Z)*0.75, c.MinDistance, c.MaxDistance)
	c.Pitch = clamp(0.6, c.MinPitch, c.MaxPitch)
}

// Path is a straight flight from Start to End, used to drive the tree
// without a window.
type Path struct {
	Start math.Vec3
	End   math.Vec3
}

// PathFromConfig builds the simulator flight.
func PathFromConfig(cfg config.SimulationConfig) Path {
	return Path{
		Start: math.Vec3{X: cfg.Start[0], Y: cfg.Start[1], Z: cfg.Start[2]},
		End:   math.Vec3{X: cfg.End[0], Y: cfg.End[1], Z: cfg.End[2]},
	}
}

// At returns the viewer position for frame i of n; frame 0 is Start and
// frame n-1 is End.
func (p Path) At(i, n int) math.Vec3 {
	if n <= 1 {
		return p.Start
	}
	t := float32(i) / float32(n-1)
	return p.Start.Lerp(p.End, clamp(t, 0, 1))
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
