// Package viewer implements the interactive mesh viewer: the main loop tying
// input, the scene, the GPU mirrors and the renderer together.
package viewer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/debug"
	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/engine/lighting"
	"github.com/Faultbox/meshview/internal/engine/meshgl"
	"github.com/Faultbox/meshview/internal/engine/renderer"
	"github.com/Faultbox/meshview/internal/engine/scene"
	"github.com/Faultbox/meshview/internal/engine/shadow"
	"github.com/Faultbox/meshview/internal/engine/window"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/stream"
	"github.com/Faultbox/meshview/pkg/math"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	running bool
	log     *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input

	scene    *scene.Scene
	registry *meshgl.Registry
	camera   *camera.OrbitCamera
	shadows  *shadow.Tracker
	sun      *lighting.Sun

	// grid and highlight are drawn but not part of the scene; the registry
	// only holds weak references, so they are kept alive here.
	grid         *mesh.Mesh
	highlight    *mesh.Mesh
	highlightFor *mesh.Mesh
	framed       bool

	screenshots    *debug.ScreenshotCapture
	wantScreenshot bool

	streamSink    *stream.Sink
	streamBatches chan mesh.MatrixD
	streamCancel  context.CancelFunc
	streamGroup   *errgroup.Group
}

// New creates the window, the GL context and the renderer.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:    cfg,
		log:    logger.Named("viewer"),
		camera: camera.NewOrbitCamera(),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}

	// The renderer needs the GL context the window just created.
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:            width,
		Height:           height,
		ShadowResolution: int32(cfg.Render.ShadowResolution),
		Background:       cfg.Render.Background,
	})
	if err != nil {
		v.window.Close()
		return nil, errors.Wrap(err, "create renderer")
	}

	sceneCfg := scene.Config{
		Vis:           cfg.Mesh.Vis,
		NormalRadius:  cfg.Mesh.NormalRadius,
		DecimateRatio: cfg.Mesh.DecimateRatio,
	}
	if cfg.Mesh.LabelFile != "" {
		labels, err := mesh.LoadLabelManager(cfg.Mesh.LabelFile)
		if err != nil {
			v.log.Warn("labels not loaded", zap.String("path", cfg.Mesh.LabelFile), zap.Error(err))
		} else {
			sceneCfg.Labels = labels
		}
	}

	v.input = input.New()
	v.scene = scene.New(sceneCfg)
	v.registry = meshgl.NewRegistry(v.renderer.Uploader)
	lightDir := cfg.Render.LightDir
	v.sun = lighting.NewSun(math.Vec3{X: lightDir[0], Y: lightDir[1], Z: lightDir[2]})
	v.shadows = shadow.NewTracker(v.sun.Direction())
	v.screenshots = debug.NewScreenshotCapture("screenshots", "meshview")

	v.grid = mesh.New()
	v.grid.Name = "grid"
	v.grid.CreateGrid(10, 0, 10)
	vis := v.grid.Vis
	vis.LineColor = [3]float32{0.35, 0.35, 0.4}
	v.grid.SetVis(vis)
	v.registry.Add(v.grid)

	v.log.Info("viewer initialized")
	return v, nil
}

// Load reads every path and adds the meshes to the scene. Files that fail
// to load are skipped and reported together.
func (v *Viewer) Load(paths ...string) error {
	var err error
	for _, path := range paths {
		m, e := mesh.NewFromFile(path)
		if e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "loading %s", path))
			continue
		}
		v.Add(m)
	}
	return err
}

// Add shows m. The camera frames the scene the first time a mesh arrives.
func (v *Viewer) Add(m *mesh.Mesh) {
	v.scene.Add(m)
	v.registry.Add(m)
	if !v.framed {
		v.frameScene()
	}
}

// remove drops m from the scene and releases its GPU buffers.
func (v *Viewer) remove(m *mesh.Mesh) {
	if v.scene.Remove(m) {
		v.registry.Remove(m.UID)
		v.log.Info("mesh removed", zap.String("mesh", m.Name))
	}
}

// StreamPoints shows a point cloud fed from r, one "x y z" per line, until
// r is exhausted or the viewer closes.
func (v *Viewer) StreamPoints(r io.Reader) {
	m := mesh.New()
	m.Name = "stream"
	vis := m.Vis
	vis.ShowMesh = false
	vis.ShowPoints = true
	m.SetVis(vis)
	v.streamSink = stream.NewSink(m, v.cfg.Mesh.StreamCapacity)
	v.Add(m)

	ctx, cancel := context.WithCancel(context.Background())
	v.streamCancel = cancel
	v.streamBatches = make(chan mesh.MatrixD, 64)
	v.streamGroup, ctx = errgroup.WithContext(ctx)
	v.streamGroup.Go(func() error {
		err := stream.ReadBatches(ctx, r, stream.DefaultBatchSize, v.streamBatches)
		if err != nil && !errors.Is(err, context.Canceled) {
			v.log.Warn("point stream ended", zap.Error(err))
		}
		return err
	})
}

// drainStream moves every pending batch into the streamed point cloud.
func (v *Viewer) drainStream() {
	if v.streamSink == nil {
		return
	}
	for {
		select {
		case batch := <-v.streamBatches:
			if err := v.streamSink.Append(&batch); err != nil {
				v.log.Warn("stream batch rejected", zap.Error(err))
			}
		default:
			return
		}
	}
}

func (v *Viewer) frameScene() {
	box, ok := v.scene.Bounds()
	if !ok {
		return
	}
	v.camera.FitToBounds(box)
	v.framed = true
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting main loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		for _, event := range v.input.Events() {
			v.handle(event)
		}

		// 2. Update scene state
		v.drainStream()
		v.updateHighlight()

		// 3. Sync mirrors and render
		if err := v.registry.Sync(); err != nil {
			v.log.Warn("mesh upload failed", zap.Error(err))
		}
		redraw := v.shadows.Update(v.scene.Meshes())
		v.renderer.Draw(v.registry.Live(), renderer.Frame{
			View:          v.camera.ViewMatrix(),
			Proj:          v.camera.ProjectionMatrix(v.renderer.Aspect()),
			Shadows:       v.shadows,
			RedrawShadows: redraw,
		})
		if v.wantScreenshot {
			v.wantScreenshot = false
			v.captureScreenshot()
		}

		// 4. Present
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(fmt.Sprintf("%s - %d meshes - %d fps", v.cfg.Window.Title, v.scene.Len(), frameCount))
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// updateHighlight keeps the wireframe box around the selection in sync with
// its geometry and placement.
func (v *Viewer) updateHighlight() {
	sel := v.scene.Selected()
	if sel == v.highlightFor && (sel == nil || !(sel.Dirty || sel.ShadowmapDirty)) {
		return
	}
	if v.highlight != nil {
		v.registry.Remove(v.highlight.UID)
		v.highlight = nil
	}
	v.highlightFor = sel
	if sel == nil || sel.IsEmpty() || !sel.Vis.IsVisible {
		return
	}
	box := scene.WorldBounds(sel)
	pad := debug.DefaultBBoxPadding * max(box.Max.X-box.Min.X, box.Max.Y-box.Min.Y, box.Max.Z-box.Min.Z)
	v.highlight = debug.BBoxWireframe(box, pad)
	v.registry.Add(v.highlight)
}

func (v *Viewer) captureScreenshot() {
	pixels, width, height := v.renderer.ReadPixels()
	path, err := v.screenshots.CaptureFromPixels(pixels, width, height)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.streamCancel != nil {
		v.streamCancel()
		// The reader goroutine may be blocked in a read that never returns;
		// only wait for it when it already finished.
		select {
		case <-waitGroup(v.streamGroup):
		case <-time.After(100 * time.Millisecond):
		}
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func waitGroup(g *errgroup.Group) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	return done
}
