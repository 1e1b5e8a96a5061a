// Package mesh is the CPU-side data model for meshes and point clouds: a
// column-oriented attribute store plus the geometric operations that edit it.
//
// A Mesh is owned by a single goroutine. Mutating operations raise Dirty and
// ShadowmapDirty; only the renderer clears them after uploading.
package mesh

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
)

// Attributes is the attribute store. Per-vertex buffers have 0 or V.Rows rows;
// per-face buffers have 0 or F.Rows rows.
type Attributes struct {
	V  MatrixD // N x 3 positions
	F  MatrixI // M x 3 triangle indices into V
	C  MatrixD // N x 3 per-vertex colors
	E  MatrixI // K x 2 line indices into V
	D  MatrixD // N x 1 distance to sensor
	NF MatrixD // M x 3 face normals
	NV MatrixD // N x 3 vertex normals
	UV MatrixD // N x 2 texture coordinates

	// Surfel frame: the first tangent in full, the second only by length.
	// Its direction is NV x VTangentU.
	VTangentU   MatrixD // N x 3
	VLengthV    MatrixD // N x 1
	VBitangentV MatrixD // N x 3, only filled by ExpandBitangents

	SPred MatrixD // N x C class scores
	LPred MatrixI // N x 1 predicted labels
	LGt   MatrixI // N x 1 ground truth labels
	I     MatrixD // N x 1 intensity

	VTI MatrixI // per-face indices into UV (OBJ vt)
	VNI MatrixI // per-face indices into NV (OBJ vn)
}

// GPUMirror is the renderer-side copy of a mesh, as seen from the core.
type GPUMirror interface {
	IsTextureInitialized(kind TextureKind) bool
}

// Mesh is a triangle mesh, line set or point cloud.
type Mesh struct {
	Attributes

	Name     string
	UID      uuid.UUID
	DiskPath string

	// Dirty asks the GPU mirror to re-upload; ShadowmapDirty asks the shadow
	// pass to re-render. The core only ever sets them.
	Dirty          bool
	ShadowmapDirty bool
	// ForceVisUpdate pushes Vis into the GPU mirror on the next sync.
	ForceVisUpdate bool

	Vis VisOptions

	LabelMngr LabelManager
	Children  []*Mesh

	Timestamp     uint64
	ID            int
	Width         int
	Height        int
	ViewDirection float64
	SegLabelPred  int
	SegLabelGt    int

	// MinMaxY holds the true vertical extrema; MinMaxYForPlotting is the
	// user-adjustable range for height coloring and is never reset from it.
	MinMaxY            [2]float64
	MinMaxYForPlotting [2]float64

	modelMatrix mgl64.Mat4
	curPose     mgl64.Mat4

	vBlob    *Blob[float64]
	textures map[TextureKind]*Texture
	fields   map[string]any
	gpu      GPUMirror
	rng      *rand.Rand
}

// New returns an empty mesh with identity transforms.
func New() *Mesh {
	m := &Mesh{
		UID:         uuid.New(),
		Vis:         DefaultVisOptions(),
		modelMatrix: mgl64.Ident4(),
		curPose:     mgl64.Ident4(),
		textures:    make(map[TextureKind]*Texture),
		fields:      make(map[string]any),
		rng:         rand.New(rand.NewPCG(0, 0)),
	}
	m.vBlob = NewBlob(&m.V)
	return m
}

// NewFromFile creates a mesh and loads it from path.
func NewFromFile(path string) (*Mesh, error) {
	m := New()
	if err := m.LoadFromFile(path); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mesh) log() *zap.Logger {
	l := logger.Named("mesh")
	if m.Name != "" {
		l = l.With(zap.String("mesh", m.Name))
	}
	return l
}

// markDirty raises both dirty flags.
func (m *Mesh) markDirty() {
	m.Dirty = true
	m.ShadowmapDirty = true
}

// IsEmpty reports whether the mesh has no vertices.
func (m *Mesh) IsEmpty() bool {
	return m.V.Rows == 0
}

// Clear resets every attribute to 0x0.
func (m *Mesh) Clear() {
	m.Attributes = Attributes{}
	m.vBlob = NewBlob(&m.V)
	m.markDirty()
}

// SetAllMatricesToZero zeroes every attribute, keeping shapes.
func (m *Mesh) SetAllMatricesToZero() {
	for _, a := range m.floatAttrs() {
		a.m.SetZero()
	}
	for _, a := range m.intAttrs() {
		a.m.SetZero()
	}
	m.markDirty()
}

// VBlob returns the streaming writer over V.
func (m *Mesh) VBlob() *Blob[float64] {
	return m.vBlob
}

// AssignGPU records the renderer-side mirror of this mesh.
func (m *Mesh) AssignGPU(g GPUMirror) {
	m.gpu = g
}

// GPU returns the assigned mirror or nil.
func (m *Mesh) GPU() GPUMirror {
	return m.gpu
}

// SetSeed reseeds the generator used by random augmentations and coloring.
func (m *Mesh) SetSeed(seed uint64) {
	m.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SetVis replaces the visualization options, raising ShadowmapDirty when the
// change affects what is drawn into the shadow map.
func (m *Mesh) SetVis(v VisOptions) {
	if affectsShadow(m.Vis, v) {
		m.ShadowmapDirty = true
	}
	m.Vis = v
}

type floatAttr struct {
	name      string
	m         *MatrixD
	perVertex bool
	perFace   bool
}

type intAttr struct {
	name      string
	m         *MatrixI
	perVertex bool
	perFace   bool
}

func (m *Mesh) floatAttrs() []floatAttr {
	return []floatAttr{
		{"V", &m.V, true, false},
		{"C", &m.C, true, false},
		{"D", &m.D, true, false},
		{"NF", &m.NF, false, true},
		{"NV", &m.NV, true, false},
		{"UV", &m.UV, true, false},
		{"V_tangent_u", &m.VTangentU, true, false},
		{"V_length_v", &m.VLengthV, true, false},
		{"V_bitangent_v", &m.VBitangentV, true, false},
		{"S_pred", &m.SPred, true, false},
		{"I", &m.I, true, false},
	}
}

func (m *Mesh) intAttrs() []intAttr {
	return []intAttr{
		{"F", &m.F, false, false},
		{"E", &m.E, false, false},
		{"L_pred", &m.LPred, true, false},
		{"L_gt", &m.LGt, true, false},
		{"VTI", &m.VTI, false, true},
		{"VNI", &m.VNI, false, true},
	}
}

// selectVertexRows keeps only the given vertex rows, in order, across every
// populated per-vertex attribute (V included). Tables addressed through VTI
// or VNI are left alone since face corners do not refer to vertex rows.
// Other attributes whose row count does not match V are cleared since they
// cannot be kept aligned. The V blob loses its preallocation.
func (m *Mesh) selectVertexRows(rows []int) {
	n := m.V.Rows
	defer m.vBlob.Reset()
	for _, a := range m.floatAttrs() {
		if !a.perVertex || a.m.Rows == 0 || m.indirected(a.m) {
			continue
		}
		if a.m.Rows != n {
			m.log().Warn("dropping misaligned per-vertex attribute", zap.String("attr", a.name), zap.Int("rows", a.m.Rows), zap.Int("verts", n))
			a.m.Clear()
			continue
		}
		*a.m = a.m.SelectRows(rows)
	}
	for _, a := range m.intAttrs() {
		if !a.perVertex || a.m.Rows == 0 {
			continue
		}
		if a.m.Rows != n {
			a.m.Clear()
			continue
		}
		*a.m = a.m.SelectRows(rows)
	}
}

// selectFaceRows keeps the given rows of F and of every face-aligned attribute.
// A table whose indirection gets cleared is cleared with it.
func (m *Mesh) selectFaceRows(rows []int) {
	n := m.F.Rows
	uvIndirected, nvIndirected := m.indirected(&m.UV), m.indirected(&m.NV)
	defer func() {
		if uvIndirected && m.VTI.Rows == 0 {
			m.UV.Clear()
		}
		if nvIndirected && m.VNI.Rows == 0 {
			m.NV.Clear()
		}
	}()
	for _, a := range m.floatAttrs() {
		if a.perFace && a.m.Rows == n && n > 0 {
			*a.m = a.m.SelectRows(rows)
		} else if a.perFace {
			a.m.Clear()
		}
	}
	for _, a := range m.intAttrs() {
		if a.perFace && a.m.Rows == n && n > 0 {
			*a.m = a.m.SelectRows(rows)
		} else if a.perFace {
			a.m.Clear()
		}
	}
	m.F = m.F.SelectRows(rows)
}

// Clone returns a deep copy of the mesh and its children. The copy gets a new
// UID and no GPU mirror.
func (m *Mesh) Clone() (*Mesh, error) {
	out := New()
	if err := copier.CopyWithOption(&out.Attributes, &m.Attributes, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, "clone attributes")
	}
	out.Name = m.Name
	out.DiskPath = m.DiskPath
	out.Dirty = true
	out.ShadowmapDirty = true
	out.Vis = m.Vis
	out.LabelMngr = m.LabelMngr
	out.Timestamp = m.Timestamp
	out.ID = m.ID
	out.Width, out.Height = m.Width, m.Height
	out.ViewDirection = m.ViewDirection
	out.SegLabelPred, out.SegLabelGt = m.SegLabelPred, m.SegLabelGt
	out.MinMaxY = m.MinMaxY
	out.MinMaxYForPlotting = m.MinMaxYForPlotting
	out.modelMatrix = m.modelMatrix
	out.curPose = m.curPose
	out.vBlob.preallocated = m.vBlob.preallocated
	out.vBlob.capacity = m.vBlob.capacity
	out.vBlob.start, out.vBlob.end = m.vBlob.start, m.vBlob.end
	for k, t := range m.textures {
		cp := *t
		out.textures[k] = &cp
	}
	for k, v := range m.fields {
		out.fields[k] = v
	}
	for _, c := range m.Children {
		cc, err := c.Clone()
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, cc)
	}
	return out, nil
}

// Add merges other into m. Face and edge indices of other are offset by the
// current vertex count. An attribute survives the merge only when every side
// that has elements (vertices or faces) also carries that attribute.
func (m *Mesh) Add(other *Mesh) error {
	if other.IsEmpty() {
		return nil
	}
	offset := m.V.Rows
	want := func(mm *Mesh, perFace bool) int {
		if perFace {
			return mm.F.Rows
		}
		return mm.V.Rows
	}

	mf, of := m.floatAttrs(), other.floatAttrs()
	for i, a := range mf {
		if a.name == "V" || (!a.perVertex && !a.perFace) {
			continue
		}
		if err := mergeAttr(a.m, of[i].m, want(m, a.perFace), want(other, a.perFace)); err != nil {
			return errors.Wrapf(err, "add %s", a.name)
		}
	}
	mi, oi := m.intAttrs(), other.intAttrs()
	for i, a := range mi {
		if !a.perVertex && !a.perFace {
			continue
		}
		if err := mergeAttr(a.m, oi[i].m, want(m, a.perFace), want(other, a.perFace)); err != nil {
			return errors.Wrapf(err, "add %s", a.name)
		}
	}

	if err := appendOffset(&m.F, &other.F, offset); err != nil {
		return errors.Wrap(err, "add F")
	}
	if err := appendOffset(&m.E, &other.E, offset); err != nil {
		return errors.Wrap(err, "add E")
	}
	if err := m.V.AppendRows(&other.V); err != nil {
		return errors.Wrap(err, "add V")
	}
	m.vBlob.Reset()
	m.markDirty()
	return nil
}

// AddAll merges every mesh of the list into m.
func (m *Mesh) AddAll(meshes []*Mesh) error {
	for _, o := range meshes {
		if err := m.Add(o); err != nil {
			return err
		}
	}
	return nil
}

// mergeAttr stacks src below dst. dstWant and srcWant are the row counts each
// side must have for the attribute to be aligned (0 means the side has no
// elements and contributes nothing).
func mergeAttr[T Scalar](dst, src *Matrix[T], dstWant, srcWant int) error {
	if dst.Rows == 0 && src.Rows == 0 {
		return nil
	}
	dstOK := dstWant == 0 || dst.Rows == dstWant
	srcOK := srcWant == 0 || src.Rows == srcWant
	if !dstOK || !srcOK {
		dst.Clear()
		return nil
	}
	if dstWant == 0 {
		dst.Clear()
	}
	if srcWant == 0 {
		return nil
	}
	return dst.AppendRows(src)
}

func appendOffset(dst, src *MatrixI, offset int) error {
	if src.Rows == 0 {
		return nil
	}
	shifted := src.Clone()
	for i := range shifted.Data {
		shifted.Data[i] += offset
	}
	return dst.AppendRows(&shifted)
}

// String summarizes the populated attributes.
func (m *Mesh) String() string {
	var b strings.Builder
	name := m.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "mesh %s", name)
	for _, a := range m.floatAttrs() {
		if a.m.Rows > 0 {
			fmt.Fprintf(&b, " %s:%dx%d", a.name, a.m.Rows, a.m.Cols)
		}
	}
	for _, a := range m.intAttrs() {
		if a.m.Rows > 0 {
			fmt.Fprintf(&b, " %s:%dx%d", a.name, a.m.Rows, a.m.Cols)
		}
	}
	return b.String()
}

// MemoryFootprint returns the bytes held by the attribute store.
func (m *Mesh) MemoryFootprint() uint64 {
	var n uint64
	for _, a := range m.floatAttrs() {
		n += uint64(len(a.m.Data)) * 8
	}
	for _, a := range m.intAttrs() {
		n += uint64(len(a.m.Data)) * 8
	}
	for _, t := range m.textures {
		if t.Img != nil {
			r := t.Img.Bounds()
			n += uint64(r.Dx()*r.Dy()) * 4
		}
	}
	return n
}
