package viewer

import (
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/engine/picking"
	"github.com/Faultbox/meshview/internal/engine/scene"
)

// sunStep is the light rotation per arrow key press, in degrees.
const sunStep = 5

// sunKeys moves the light: left/right change azimuth, up/down elevation.
var sunKeys = map[sdl.Keycode][2]float32{
	sdl.K_LEFT:  {-sunStep, 0},
	sdl.K_RIGHT: {sunStep, 0},
	sdl.K_UP:    {0, sunStep},
	sdl.K_DOWN:  {0, -sunStep},
}

// keyActions binds keys to scene edits. Shift reverses cycling actions.
var keyActions = map[sdl.Keycode]scene.Action{
	sdl.K_p:      scene.TogglePoints,
	sdl.K_l:      scene.ToggleLines,
	sdl.K_m:      scene.ToggleMesh,
	sdl.K_w:      scene.ToggleWireframe,
	sdl.K_s:      scene.ToggleSurfels,
	sdl.K_h:      scene.ToggleVisible,
	sdl.K_o:      scene.ToggleOverlay,
	sdl.K_c:      scene.NextColorType,
	sdl.K_v:      scene.NextColorScheme,
	sdl.K_EQUALS: scene.GrowPoints,
	sdl.K_MINUS:  scene.ShrinkPoints,
	sdl.K_n:      scene.RecalculateNormals,
	sdl.K_f:      scene.FlipWinding,
	sdl.K_d:      scene.Decimate,
	sdl.K_u:      scene.Upsample,
	sdl.K_k:      scene.ColorComponents,
}

func (v *Viewer) handle(e input.Event) {
	switch e.Type {
	case input.EventWindowResize:
		width, height := v.window.DrawableSize()
		v.renderer.Resize(width, height)

	case input.EventMouseDrag:
		if e.Button == sdl.BUTTON_LEFT {
			v.camera.HandleDrag(e.DX, e.DY)
		} else {
			v.camera.HandlePan(e.DX, e.DY)
		}

	case input.EventMouseWheel:
		v.camera.HandleZoom(e.Wheel)

	case input.EventClick:
		v.pick(e.X, e.Y)

	case input.EventDropFile:
		if err := v.Load(e.Path); err != nil {
			v.log.Error("dropped file not loaded", zap.Error(err))
		}

	case input.EventKeyDown:
		v.handleKey(e.Key, e.Shift)
	}
}

func (v *Viewer) handleKey(key sdl.Keycode, shift bool) {
	switch key {
	case sdl.K_TAB:
		v.scene.SelectNext()
		return
	case sdl.K_BACKSPACE:
		v.scene.Select(nil)
		return
	case sdl.K_DELETE:
		if sel := v.scene.Selected(); sel != nil {
			v.remove(sel)
		}
		return
	case sdl.K_SPACE:
		v.frameScene()
		return
	case sdl.K_g:
		vis := v.grid.Vis
		vis.IsVisible = !vis.IsVisible
		v.grid.SetVis(vis)
		v.grid.ForceVisUpdate = true
		return
	case sdl.K_F12:
		v.wantScreenshot = true
		return
	}

	if d, ok := sunKeys[key]; ok {
		v.rotateSun(d[0], d[1])
		return
	}

	action, ok := keyActions[key]
	if !ok {
		return
	}
	if shift && action == scene.NextColorType {
		action = scene.PrevColorType
	}
	if err := v.scene.Apply(action); err != nil {
		v.log.Warn("action failed", zap.Stringer("action", action), zap.Error(err))
	}
}

// pick selects the mesh under the cursor, or clears the selection.
func (v *Viewer) pick(x, y float32) {
	width, height := v.window.Size()
	ray, err := picking.ScreenToRay(x, y, width, height,
		v.camera.ViewMatrix(), v.camera.ProjectionMatrix(v.renderer.Aspect()))
	if err != nil {
		v.log.Debug("pick ray", zap.Error(err))
		return
	}
	m, _, ok := picking.Pick(ray, v.scene.Meshes())
	if !ok {
		v.scene.Select(nil)
		return
	}
	v.scene.Select(m)
	v.log.Debug("picked mesh", zap.String("mesh", m.Name))
}

func (v *Viewer) rotateSun(dAzimuth, dElevation float32) {
	v.shadows.SetLightDir(v.sun.Rotate(dAzimuth, dElevation))
	v.log.Debug("light moved",
		zap.Float32("azimuth", v.sun.Azimuth),
		zap.Float32("elevation", v.sun.Elevation))
}
