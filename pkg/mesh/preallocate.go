package mesh

// Preallocation sizes an attribute up front so a streaming producer can fill
// it without reallocating. Only V goes through the Blob writer; the other
// buffers are written by the caller by row.

// PreallocateV sizes V for rows points and resets the blob's occupied range.
func (m *Mesh) PreallocateV(rows int) {
	m.vBlob.Preallocate(rows, 3)
	m.markDirty()
}

// PreallocateF sizes F for rows triangles.
func (m *Mesh) PreallocateF(rows int) { m.preallocateI(&m.F, rows, 3) }

// PreallocateE sizes E for rows line segments.
func (m *Mesh) PreallocateE(rows int) { m.preallocateI(&m.E, rows, 2) }

// PreallocateC sizes C for rows colors.
func (m *Mesh) PreallocateC(rows int) { m.preallocateD(&m.C, rows, 3) }

// PreallocateD sizes D for rows distances.
func (m *Mesh) PreallocateD(rows int) { m.preallocateD(&m.D, rows, 1) }

// PreallocateNF sizes NF for rows face normals.
func (m *Mesh) PreallocateNF(rows int) { m.preallocateD(&m.NF, rows, 3) }

// PreallocateNV sizes NV for rows vertex normals.
func (m *Mesh) PreallocateNV(rows int) { m.preallocateD(&m.NV, rows, 3) }

// PreallocateUV sizes UV for rows texture coordinates.
func (m *Mesh) PreallocateUV(rows int) { m.preallocateD(&m.UV, rows, 2) }

// PreallocateVTangentU sizes VTangentU for rows tangents.
func (m *Mesh) PreallocateVTangentU(rows int) { m.preallocateD(&m.VTangentU, rows, 3) }

// PreallocateVLengthV sizes VLengthV for rows bitangent lengths.
func (m *Mesh) PreallocateVLengthV(rows int) { m.preallocateD(&m.VLengthV, rows, 1) }

// PreallocateLPred sizes LPred for rows labels.
func (m *Mesh) PreallocateLPred(rows int) { m.preallocateI(&m.LPred, rows, 1) }

// PreallocateLGt sizes LGt for rows labels.
func (m *Mesh) PreallocateLGt(rows int) { m.preallocateI(&m.LGt, rows, 1) }

// PreallocateI sizes I for rows intensities.
func (m *Mesh) PreallocateI(rows int) { m.preallocateD(&m.I, rows, 1) }

func (m *Mesh) preallocateD(a *MatrixD, rows, cols int) {
	a.Resize(rows, cols)
	m.markDirty()
}

func (m *Mesh) preallocateI(a *MatrixI, rows, cols int) {
	a.Resize(rows, cols)
	m.markDirty()
}

// AppendPoints streams a block of positions into the preallocated V.
func (m *Mesh) AppendPoints(pts *MatrixD) (bool, error) {
	ok, err := m.vBlob.CopyInFirstEmptyBlock(pts)
	if ok {
		m.markDirty()
	}
	return ok, err
}

// PerVertexAttributes lists the names of the populated per-vertex buffers.
func (m *Mesh) PerVertexAttributes() []string {
	var names []string
	for _, a := range m.floatAttrs() {
		if a.perVertex && a.m.Rows > 0 {
			names = append(names, a.name)
		}
	}
	for _, a := range m.intAttrs() {
		if a.perVertex && a.m.Rows > 0 {
			names = append(names, a.name)
		}
	}
	return names
}
