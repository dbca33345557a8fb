// Package viewer runs the interactive terrain viewer: an SDL2 window, an orbit
// camera whose position drives the quadtree every frame, and an OpenGL
// renderer that receives the leaf meshes.
package viewer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/quadterrain/internal/config"
	"github.com/Faultbox/quadterrain/internal/engine/camera"
	"github.com/Faultbox/quadterrain/internal/engine/input"
	"github.com/Faultbox/quadterrain/internal/engine/renderer"
	"github.com/Faultbox/quadterrain/internal/engine/window"
	"github.com/Faultbox/quadterrain/internal/lodmap"
	"github.com/Faultbox/quadterrain/internal/logger"
	"github.com/Faultbox/quadterrain/internal/quadtree"
	"github.com/Faultbox/quadterrain/internal/terrain"
)

const title = "QuadTerrain"

// Viewer is the interactive application.
type Viewer struct {
	config   *config.Config
	running  bool
	frozen   bool // LOD updates paused; the camera still moves
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	tree     *quadtree.QuadTree

	screenshots *lodmap.Capturer
	lodMaps     *lodmap.Capturer

	// pendingHeight receives a raster chosen in the file dialog; the tree is
	// rebuilt on the main thread.
	pendingHeight chan string

	skipped int // frames aborted by mesh allocation failures
}

// New creates the window, renderer and terrain.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		config:        cfg,
		input:         input.New(),
		camera:        camera.NewOrbitCamera(cfg.Camera),
		screenshots:   lodmap.NewCapturer("screenshots", "frame", lodmap.PNG),
		lodMaps:       lodmap.NewCapturer("screenshots", "lod", lodmap.WebP),
		pendingHeight: make(chan string, 1),
	}

	var err error
	// The window must exist before the renderer: it owns the GL context.
	v.window, err = window.New(window.ConfigFrom(title, cfg.Graphics))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:     width,
		Height:    height,
		Wireframe: cfg.Terrain.Wireframe,
		MaxTiles:  cfg.Terrain.MaxMeshes,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if err := v.loadTerrain(cfg.Terrain); err != nil {
		v.Close()
		return nil, err
	}
	v.camera.FitToBounds(v.tree.Root().Bounds())

	logger.Info("viewer initialized")
	return v, nil
}

// loadTerrain replaces the current tree with one built from cfg. When the new
// tree cannot be attached after the old one was released, the previous
// terrain is rebuilt.
func (v *Viewer) loadTerrain(cfg config.TerrainConfig) error {
	tree, err := terrain.Replace(v.tree, cfg, v.renderer)
	if err == nil {
		v.tree = tree
		v.config.Terrain = cfg
		return nil
	}
	if tree != nil || v.tree == nil {
		return fmt.Errorf("failed to build terrain: %w", err)
	}

	previous, rerr := terrain.New(v.config.Terrain, v.renderer)
	if rerr != nil {
		v.tree = nil
		return fmt.Errorf("failed to build terrain: %w (restoring previous: %v)", err, rerr)
	}
	v.tree = previous
	return fmt.Errorf("failed to build terrain: %w", err)
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var minFrame time.Duration
	if v.config.Graphics.FPSLimit > 0 {
		minFrame = time.Second / time.Duration(v.config.Graphics.FPSLimit)
	}

	logger.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents(float32(dt))

		if err := v.update(); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		stats := v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			lod := v.tree.LastStats()
			v.window.SetTitle(fmt.Sprintf("%s | %d fps | %d leaves, depth %d | %d tris%s",
				title, frameCount, lod.Leaves, lod.MaxLeafDepth, stats.Triangles, v.status()))
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Float64("dtMs", dt*1000),
				zap.Int("tiles", stats.Tiles),
				zap.Int("skipped", v.skipped))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if minFrame > 0 {
			if spent := time.Since(now); spent < minFrame {
				time.Sleep(minFrame - spent)
			}
		}
	}

	return nil
}

func (v *Viewer) status() string {
	if v.frozen {
		return " | LOD frozen"
	}
	return ""
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.tree != nil {
		v.tree.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvents(dt float32) {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.DrawableSize())
		case input.EventMouseMove:
			if v.input.IsButtonHeld(sdl.BUTTON_LEFT) {
				v.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(float32(event.DeltaY))
		case input.EventKeyDown:
			v.handleKey(event.Key)
		}
	}

	// Held keys pan the orbit centre.
	var forward, right, up float32
	if v.input.IsKeyHeld(sdl.SCANCODE_UP) {
		forward++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_DOWN) {
		forward--
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_RIGHT) {
		right++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_LEFT) {
		right--
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_PAGEUP) {
		up++
	}
	if v.input.IsKeyHeld(sdl.SCANCODE_PAGEDOWN) {
		up--
	}
	if forward != 0 || right != 0 || up != 0 {
		scale := dt * 60
		v.camera.HandleMovement(forward*scale, right*scale, up*scale)
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_W:
		v.renderer.SetWireframe(!v.renderer.Wireframe())
	case sdl.SCANCODE_SPACE:
		v.frozen = !v.frozen
		logger.Info("LOD updates toggled", zap.Bool("frozen", v.frozen))
	case sdl.SCANCODE_F:
		v.camera.FitToBounds(v.tree.Root().Bounds())
	case sdl.SCANCODE_F12:
		pixels, w, h := v.renderer.ReadPixels()
		v.save(v.screenshots.CaptureFromPixels(pixels, w, h))
	case sdl.SCANCODE_M:
		pos := v.camera.Position()
		opts := lodmap.Options{Size: v.config.Simulation.MapSize, Borders: true, Viewer: &pos}
		v.save(v.lodMaps.Capture(lodmap.Render(v.tree, opts)))
	case sdl.SCANCODE_O:
		v.openHeightDialog()
	}
}

func (v *Viewer) save(name string, err error) {
	if err != nil {
		logger.Error("capture failed", zap.Error(err))
		return
	}
	logger.Info("capture saved", zap.String("path", name))
}

// openHeightDialog asks for a height raster without blocking the loop.
func (v *Viewer) openHeightDialog() {
	go func() {
		path, err := dialog.File().
			Filter("Height rasters", "png", "tga", "webp", "data", "raw").
			Filter("All Files", "*").
			Title("Open height raster").
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				logger.Error("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case v.pendingHeight <- path:
		default:
		}
	}()
}

// update feeds the camera position to the tree, and swaps in a newly chosen
// raster if there is one.
func (v *Viewer) update() error {
	select {
	case path := <-v.pendingHeight:
		cfg := v.config.Terrain
		cfg.HeightPath = path
		if err := v.loadTerrain(cfg); err != nil {
			if v.tree == nil {
				return err
			}
			logger.Error("keeping current terrain", zap.String("path", path), zap.Error(err))
		} else {
			logger.Info("terrain replaced", zap.String("path", path))
		}
	default:
	}

	if v.frozen {
		return nil
	}
	err := v.tree.Update(v.camera.Position())
	if errors.Is(err, quadtree.ErrResourceAllocation) {
		// The tree is intact; try again next frame.
		v.skipped++
		logger.Warn("LOD frame skipped", zap.Error(err))
		return nil
	}
	return err
}

func (v *Viewer) render() renderer.FrameStats {
	v.renderer.Begin()
	stats := v.renderer.Draw(v.camera.ViewMatrix(), v.camera.ProjectionMatrix(v.renderer.Aspect()))
	v.renderer.End()
	return stats
}
