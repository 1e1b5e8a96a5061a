// Package renderer draws mirrored meshes with OpenGL.
package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/meshgl"
	"github.com/Faultbox/meshview/internal/engine/shader"
	"github.com/Faultbox/meshview/internal/engine/shadow"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/math"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Config holds renderer configuration.
type Config struct {
	Width            int
	Height           int
	ShadowResolution int32
	Background       [3]float32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	meshProgram  *shader.Program
	depthProgram *shader.Program
	shadowMap    *ShadowMap

	Uploader *Uploader
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{config: cfg}

	if err := gl.Init(); err != nil {
		return nil, errors.Wrap(err, "initialize OpenGL")
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(cfg.Background[0], cfg.Background[1], cfg.Background[2], 1.0)

	var err error
	if r.meshProgram, err = shader.NewProgram(meshVertexShader, meshFragmentShader); err != nil {
		return nil, errors.Wrap(err, "mesh shader")
	}
	if r.depthProgram, err = shader.NewProgram(depthVertexShader, depthFragmentShader); err != nil {
		return nil, errors.Wrap(err, "depth shader")
	}
	if r.shadowMap, err = NewShadowMap(cfg.ShadowResolution); err != nil {
		logger.Warn("shadows disabled", zap.Error(err))
	}

	r.Uploader = NewUploader()
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	r.Uploader.Close()
	r.shadowMap.Destroy()
	r.meshProgram.Delete()
	r.depthProgram.Delete()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// ReadPixels returns the RGBA contents of the back buffer, bottom row first.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Frame is what one draw call needs besides the meshes.
type Frame struct {
	View, Proj math.Mat4
	Shadows    *shadow.Tracker
	// RedrawShadows is the result of Shadows.Update for this frame.
	RedrawShadows bool
}

// Draw renders every live mirror.
func (r *Renderer) Draw(mirrors []*meshgl.MeshGL, f Frame) {
	if r.shadowMap.IsValid() && f.Shadows != nil && f.RedrawShadows {
		r.drawShadowPass(mirrors, f.Shadows.Matrix())
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	p := r.meshProgram
	p.Use()
	p.SetMat4("uView", f.View)
	p.SetMat4("uProj", f.Proj)
	p.SetInt("uDiffuse", 0)
	p.SetInt("uShadowMap", 1)
	shadows := r.shadowMap.IsValid() && f.Shadows != nil
	p.SetBool("uShadowsEnabled", shadows)
	if shadows {
		p.SetMat4("uLightViewProj", f.Shadows.Matrix())
		p.SetVec3("uLightDir", f.Shadows.LightDir.Normalize().Array())
		r.shadowMap.BindTexture(gl.TEXTURE1)
	} else {
		p.SetVec3("uLightDir", math.Vec3{X: 0.3, Y: 1, Z: 0.5}.Normalize().Array())
	}

	for _, g := range mirrors {
		gm, ok := r.Uploader.meshes[g.UID]
		if !ok || !g.Vis.IsVisible {
			continue
		}
		r.drawMesh(g, gm)
	}
	gl.BindVertexArray(0)
}

func (r *Renderer) drawMesh(g *meshgl.MeshGL, gm *gpuMesh) {
	p := r.meshProgram
	vis := g.Vis
	p.SetMat4("uModel", g.Model)
	p.SetMat3("uNormalMatrix", g.NormalMatrix)
	p.SetVec2("uHeightRange", g.HeightRange)
	p.SetVec3Slice("uScheme", schemeStops(vis.ColorScheme))
	gl.BindVertexArray(gm.vao)

	if tex, ok := gm.textures[mesh.TextureDiffuse]; ok {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex)
	}

	if vis.ShowMesh && gm.numTris > 0 {
		p.SetInt("uColorType", int32(vis.ColorType))
		p.SetVec3("uSolidColor", vis.SolidColor)
		p.SetBool("uLit", gm.hasNormal)
		gl.DrawElements(gl.TRIANGLES, gm.numTris*3, gl.UNSIGNED_INT, nil)
	}

	if vis.ShowWireframe && gm.numTris > 0 {
		p.SetInt("uColorType", int32(mesh.ColorSolid))
		p.SetVec3("uSolidColor", vis.LineColor)
		p.SetBool("uLit", false)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		gl.Enable(gl.POLYGON_OFFSET_LINE)
		gl.PolygonOffset(-1, -1)
		gl.DrawElements(gl.TRIANGLES, gm.numTris*3, gl.UNSIGNED_INT, nil)
		gl.Disable(gl.POLYGON_OFFSET_LINE)
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	if vis.ShowLines && gm.numLines > 0 {
		p.SetInt("uColorType", int32(mesh.ColorSolid))
		p.SetVec3("uSolidColor", vis.LineColor)
		p.SetBool("uLit", false)
		overlay(vis.OverlayLines, func() {
			gl.LineWidth(vis.LineWidth)
			gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.lineEBO)
			gl.DrawElements(gl.LINES, gm.numLines*2, gl.UNSIGNED_INT, nil)
			gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.triEBO)
		})
	}

	if vis.ShowPoints && gm.numVerts > 0 {
		ct := vis.ColorType
		color := vis.SolidColor
		if ct == mesh.ColorSolid {
			color = vis.PointColor
		}
		p.SetInt("uColorType", int32(ct))
		p.SetVec3("uSolidColor", color)
		p.SetBool("uLit", false)
		overlay(vis.OverlayPoints, func() {
			gl.PointSize(vis.PointSize)
			gl.DrawArrays(gl.POINTS, 0, gm.numVerts)
		})
	}
}

// overlay runs draw with depth testing off when on is set.
func overlay(on bool, draw func()) {
	if on {
		gl.Disable(gl.DEPTH_TEST)
		defer gl.Enable(gl.DEPTH_TEST)
	}
	draw()
}

func (r *Renderer) drawShadowPass(mirrors []*meshgl.MeshGL, lightViewProj math.Mat4) {
	r.shadowMap.Bind()
	p := r.depthProgram
	p.Use()
	p.SetMat4("uLightViewProj", lightViewProj)
	for _, g := range mirrors {
		m := g.Mesh()
		gm, ok := r.Uploader.meshes[g.UID]
		if m == nil || !ok || gm.numTris == 0 || !shadow.CastsShadow(m) {
			continue
		}
		p.SetMat4("uModel", g.Model)
		gl.BindVertexArray(gm.vao)
		gl.DrawElements(gl.TRIANGLES, gm.numTris*3, gl.UNSIGNED_INT, nil)
	}
	gl.BindVertexArray(0)
	r.shadowMap.Unbind()
}

// schemeStops returns three colors the shader interpolates between.
func schemeStops(s mesh.ColorScheme) [][3]float32 {
	switch s {
	case mesh.SchemeViridis:
		return [][3]float32{{0.267, 0.005, 0.329}, {0.128, 0.567, 0.551}, {0.993, 0.906, 0.144}}
	case mesh.SchemeMagma:
		return [][3]float32{{0.001, 0.000, 0.014}, {0.716, 0.215, 0.475}, {0.987, 0.991, 0.750}}
	default:
		return [][3]float32{{0.050, 0.030, 0.528}, {0.798, 0.280, 0.470}, {0.940, 0.975, 0.131}}
	}
}

func checkError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return errors.Errorf("%s: GL error 0x%x", op, code)
	}
	return nil
}
