// Package meshgl keeps the GPU-side copy of each mesh in step with the CPU
// data model.
//
// A MeshGL refers to its mesh weakly: dropping the last strong reference to a
// mesh lets it be collected even while its mirror is still registered. The
// mirror notices on the next Sync and reports ErrMeshExpired.
package meshgl

import (
	"image"
	"weak"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/math"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// ErrMeshExpired is returned when the mirrored mesh has been collected.
var ErrMeshExpired = errors.New("meshgl: mesh no longer exists")

// Uploader moves CPU data into GPU storage keyed by mesh UID.
type Uploader interface {
	UploadBuffers(id uuid.UUID, b *Buffers) error
	UploadTexture(id uuid.UUID, kind mesh.TextureKind, img *image.RGBA) error
	Release(id uuid.UUID)
}

// MeshGL is the renderer-side mirror of one mesh.
type MeshGL struct {
	UID uuid.UUID

	// Copied on every Sync.
	Model        math.Mat4
	NormalMatrix [9]float32
	// Vis and HeightRange are refreshed when the mesh is dirty or asks for it.
	Vis         mesh.VisOptions
	HeightRange [2]float32

	NumVerts     int
	NumTriangles int
	NumLines     int

	mesh     weak.Pointer[mesh.Mesh]
	up       Uploader
	texReady map[mesh.TextureKind]bool
	uploads  int
}

// New creates the mirror of m and registers it with the mesh.
func New(m *mesh.Mesh, up Uploader) *MeshGL {
	g := &MeshGL{
		UID:      m.UID,
		Vis:      m.Vis,
		mesh:     weak.Make(m),
		up:       up,
		texReady: make(map[mesh.TextureKind]bool),
	}
	m.AssignGPU(g)
	return g
}

// Mesh resolves the weak reference. It returns nil once the mesh is gone.
func (g *MeshGL) Mesh() *mesh.Mesh {
	return g.mesh.Value()
}

// IsTextureInitialized reports whether slot kind has been uploaded.
func (g *MeshGL) IsTextureInitialized(kind mesh.TextureKind) bool {
	return g.texReady[kind]
}

// Uploads returns how many times buffers were pushed to the GPU.
func (g *MeshGL) Uploads() int {
	return g.uploads
}

// Sync pulls the mesh state. Buffers and textures are only re-uploaded when
// their dirty flags are set; the flags are cleared once the upload succeeds.
// ShadowmapDirty is left for the shadow pass.
func (g *MeshGL) Sync() error {
	m := g.mesh.Value()
	if m == nil {
		return ErrMeshExpired
	}

	model := m.ModelMatrix()
	g.Model = math.FromMat64(model)
	g.NormalMatrix = math.NormalMatrix(model)

	if m.Dirty || m.ForceVisUpdate {
		g.Vis = m.Vis
		g.HeightRange = [2]float32{float32(m.MinMaxYForPlotting[0]), float32(m.MinMaxYForPlotting[1])}
		m.ForceVisUpdate = false
	}

	if m.Dirty {
		b := Flatten(m)
		if err := g.up.UploadBuffers(g.UID, b); err != nil {
			return errors.Wrapf(err, "upload %s", m.Name)
		}
		g.NumVerts = b.NumVerts
		g.NumTriangles = len(b.Triangles) / 3
		g.NumLines = len(b.Lines) / 2
		g.uploads++
		m.Dirty = false
		logger.Debug("uploaded mesh",
			zap.String("mesh", m.Name),
			zap.Stringer("uid", g.UID),
			zap.Int("verts", g.NumVerts),
			zap.Int("triangles", g.NumTriangles),
		)
	}

	for _, e := range mesh.TextureKinds() {
		tex, ok := m.Texture(e.Value)
		if !ok || !tex.Dirty {
			continue
		}
		if err := g.up.UploadTexture(g.UID, e.Value, toRGBA(tex.Img)); err != nil {
			return errors.Wrapf(err, "upload %s texture of %s", e.Name, m.Name)
		}
		tex.Dirty = false
		g.texReady[e.Value] = true
	}
	return nil
}

// Release frees the GPU storage.
func (g *MeshGL) Release() {
	g.up.Release(g.UID)
	clear(g.texReady)
}

// toRGBA converts img to RGBA with the first row at the bottom, as GL
// expects texture data.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	h := b.Dy()
	stride := src.Stride
	row := make([]byte, stride)
	for y := 0; y < h/2; y++ {
		top := src.Pix[y*stride : (y+1)*stride]
		bot := src.Pix[(h-1-y)*stride : (h-y)*stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
	return src
}
