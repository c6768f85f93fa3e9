// Package viewer implements the meshview frame loop: it requests batches
// from the draw cache every frame and draws whatever is ready.
package viewer

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshcache/internal/config"
	"github.com/Faultbox/meshcache/internal/drawcache"
	"github.com/Faultbox/meshcache/internal/engine/camera"
	"github.com/Faultbox/meshcache/internal/engine/input"
	"github.com/Faultbox/meshcache/internal/engine/renderer"
	"github.com/Faultbox/meshcache/internal/engine/window"
	"github.com/Faultbox/meshcache/internal/logger"
	"github.com/Faultbox/meshcache/internal/mesh"
	"github.com/Faultbox/meshcache/pkg/math"
)

// Viewer is the interactive mesh viewer.
type Viewer struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera

	sched    drawcache.Scheduler
	registry *drawcache.Registry
	mesh     *mesh.Mesh
	state    State

	screenshot bool
}

var (
	lightDir    = math.Vec3{X: 0.3, Y: -0.5, Z: 0.8}
	wireColor   = [4]float32{0.05, 0.05, 0.05, 1}
	selectColor = [4]float32{1, 0.55, 0.1, 1}
	matColors   = [][3]float32{
		{0.8, 0.8, 0.8},
		{0.8, 0.35, 0.3},
		{0.3, 0.65, 0.35},
		{0.3, 0.45, 0.8},
		{0.85, 0.75, 0.3},
	}
)

// New opens a window and prepares the cache for m.
func New(cfg *config.Config, m *mesh.Mesh) (*Viewer, error) {
	v := &Viewer{cfg: cfg, log: logger.Named("viewer"), mesh: m}
	v.log.Info("initializing viewer",
		zap.String("mesh", m.Name),
		zap.Int("verts", len(m.Verts)),
		zap.Int("polys", len(m.Polys)),
	)

	// Window first: the renderer needs its GL context.
	var err error
	v.window, err = window.New("meshview: "+m.Name, cfg.Viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w, h := v.window.Size()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.input = input.New()
	v.camera = camera.NewOrbitCamera()
	v.camera.FitToBounds(m.Bounds())

	v.sched = drawcache.NewScheduler(cfg.Cache)
	v.registry = drawcache.NewRegistry(drawcache.Config{
		Device:      v.renderer,
		Scheduler:   v.sched,
		Logger:      logger.Named("drawcache"),
		DebugChecks: cfg.Cache.DebugChecks,
	})

	v.log.Info("viewer initialized", zap.Int("workers", cfg.Cache.WorkerCount()))
	return v, nil
}

// Run starts the frame loop and returns when the window closes.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		if err := v.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if v.screenshot {
			v.screenshot = false
			path := screenshotName(v.mesh.Name, now)
			if err := saveScreenshot(path, v.renderer.Screenshot()); err != nil {
				v.log.Warn("screenshot failed", zap.Error(err))
			} else {
				v.log.Info("screenshot saved", zap.String("path", path))
			}
		}
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.report(frameCount, dt)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// Close frees every cache and GL resource.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.registry != nil {
		v.registry.FreeAll()
	}
	if v.sched != nil {
		v.sched.Close()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvents() {
	cache := v.registry.Get(v.mesh)
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.Size())
		case input.EventDrag:
			v.camera.HandleDrag(event.DX, event.DY)
		case input.EventWheel:
			v.camera.HandleZoom(event.DY)
		case input.EventKeyDown:
			a := keyAction(event.Key, event.Shift)
			if a == ActionNone {
				continue
			}
			v.log.Debug("action", zap.Stringer("action", a))
			if a == ActionScreenshot {
				v.screenshot = true
			}
			if !v.state.Apply(a, v.mesh, cache) {
				v.running = false
			}
		}
	}
}

func keyAction(key sdl.Keycode, shift bool) Action {
	switch key {
	case sdl.K_ESCAPE:
		return ActionQuit
	case sdl.K_TAB:
		return ActionToggleEdit
	case sdl.K_u:
		return ActionToggleUVEdit
	case sdl.K_y:
		return ActionToggleUVSync
	case sdl.K_w:
		return ActionToggleWire
	case sdl.K_g:
		return ActionToggleWeights
	case sdl.K_i:
		return ActionToggleHide
	case sdl.K_a:
		return ActionSelectAll
	case sdl.K_h:
		if shift {
			return ActionRevealAll
		}
		return ActionHideSelected
	case sdl.K_v:
		return ActionAddLooseVert
	case sdl.K_m:
		return ActionAddMaterial
	case sdl.K_p:
		return ActionScreenshot
	}
	return ActionNone
}

// render requests this frame's batches, waits for them and draws.
func (v *Viewer) render() error {
	cache := v.registry.Get(v.mesh)
	cache.EnsureBatches(v.mesh, v.state.Flags(v.mesh), v.state.Options(v.mesh))

	v.renderer.Begin()

	view := v.camera.ViewMatrix()
	proj := v.camera.ProjectionMatrix(v.renderer.Aspect())
	mvp := proj.Mul(view)
	model := math.Identity()

	surface := v.renderer.Surface
	surface.Use()
	surface.SetMat4("uMVP", &mvp)
	surface.SetMat4("uModel", &model)
	surface.SetVec3("uLightDir", lightDir)
	if v.state.Weights {
		surface.SetFloat("uWeightMix", 1)
		surface.SetVec4("uColor", 1, 1, 1, 1)
		v.renderer.Draw(cache.Batch(drawcache.SurfaceWeights))
	} else {
		surface.SetFloat("uWeightMix", 0)
		for i, b := range cache.SurfacePerMaterial() {
			c := matColors[i%len(matColors)]
			surface.SetVec4("uColor", c[0], c[1], c[2], 1)
			v.renderer.Draw(b)
		}
	}

	overlay := v.renderer.Overlay
	overlay.Use()
	overlay.SetMat4("uMVP", &mvp)
	overlay.SetVec4("uColor", wireColor[0], wireColor[1], wireColor[2], wireColor[3])
	overlay.SetVec4("uSelectColor", selectColor[0], selectColor[1], selectColor[2], selectColor[3])
	overlay.SetFloat("uPointSize", 5)
	v.renderer.Draw(cache.Batch(drawcache.WireEdges))
	v.renderer.Draw(cache.Batch(drawcache.LooseEdges))
	v.renderer.Draw(cache.Batch(drawcache.AllVerts))
	if v.state.EditMode {
		v.renderer.Draw(cache.Batch(drawcache.EditEdges))
		v.renderer.Draw(cache.Batch(drawcache.EditVertices))
	}

	v.renderer.End()
	return nil
}

// report logs frame statistics and shows them in the title bar.
func (v *Viewer) report(frames int, dt time.Duration) {
	cache := v.registry.Get(v.mesh)
	st := cache.LastStats()
	status := fmt.Sprintf("%s  %d fps  %d buffers", v.state.Mode(), frames, v.renderer.Live())
	if manifold, ok := cache.Manifold(); ok {
		status += fmt.Sprintf("  manifold=%t", manifold)
	}
	if area, uvArea, ok := cache.Areas(); ok {
		status += fmt.Sprintf("  area=%.3g uv=%.3g", area, uvArea)
	}
	v.window.SetStatus(status)

	v.log.Debug("fps",
		zap.Int("count", frames),
		zap.Duration("dt", dt),
		zap.Int("live_buffers", v.renderer.Live()),
		zap.Int("vbos_built", st.VBOs),
		zap.Int("ibos_built", st.IBOs),
		zap.String("mode", v.state.Mode()),
	)
}
