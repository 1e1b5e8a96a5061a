package renderer

import (
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/google/uuid"

	"github.com/Faultbox/meshview/internal/engine/meshgl"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// Vertex attribute locations shared with the shaders.
const (
	locPosition = iota
	locNormal
	locColor
	locUV
	locIntensity
	numLocations
)

// gpuMesh is the GL storage of one mirrored mesh.
type gpuMesh struct {
	vao       uint32
	vbos      [numLocations]uint32
	triEBO    uint32
	lineEBO   uint32
	numVerts  int32
	numTris   int32
	numLines  int32
	hasNormal bool
	textures  map[mesh.TextureKind]uint32
}

// Uploader implements meshgl.Uploader on top of OpenGL.
type Uploader struct {
	meshes map[uuid.UUID]*gpuMesh
}

var _ meshgl.Uploader = (*Uploader)(nil)

// NewUploader returns an uploader with no GPU storage.
func NewUploader() *Uploader {
	return &Uploader{meshes: make(map[uuid.UUID]*gpuMesh)}
}

func (u *Uploader) get(id uuid.UUID) *gpuMesh {
	gm, ok := u.meshes[id]
	if !ok {
		gm = &gpuMesh{textures: make(map[mesh.TextureKind]uint32)}
		gl.GenVertexArrays(1, &gm.vao)
		gl.GenBuffers(int32(numLocations), &gm.vbos[0])
		gl.GenBuffers(1, &gm.triEBO)
		gl.GenBuffers(1, &gm.lineEBO)
		u.meshes[id] = gm
	}
	return gm
}

// UploadBuffers replaces the vertex and index data of mesh id.
func (u *Uploader) UploadBuffers(id uuid.UUID, b *meshgl.Buffers) error {
	gm := u.get(id)
	gl.BindVertexArray(gm.vao)

	attribute(gm.vbos[locPosition], locPosition, 3, b.Positions)
	attribute(gm.vbos[locNormal], locNormal, 3, b.Normals)
	attribute(gm.vbos[locColor], locColor, 3, b.Colors)
	attribute(gm.vbos[locUV], locUV, 2, b.UVs)
	attribute(gm.vbos[locIntensity], locIntensity, 1, b.Intensity)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.triEBO)
	bufferIndices(b.Triangles)
	gl.BindVertexArray(0)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.lineEBO)
	bufferIndices(b.Lines)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	gm.numVerts = int32(b.NumVerts)
	gm.numTris = int32(len(b.Triangles) / 3)
	gm.numLines = int32(len(b.Lines) / 2)
	gm.hasNormal = len(b.Normals) > 0
	return checkError("upload buffers")
}

// attribute fills one VBO, or disables the location when data is empty so
// the shader reads a constant zero.
func attribute(vbo uint32, loc uint32, size int32, data []float32) {
	if len(data) == 0 {
		gl.DisableVertexAttribArray(loc)
		gl.VertexAttrib4f(loc, 0, 0, 0, 1)
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.DYNAMIC_DRAW)
	gl.VertexAttribPointerWithOffset(loc, size, gl.FLOAT, false, size*4, 0)
	gl.EnableVertexAttribArray(loc)
}

func bufferIndices(idx []uint32) {
	if len(idx) == 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
		return
	}
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(idx)*4, unsafe.Pointer(&idx[0]), gl.DYNAMIC_DRAW)
}

// UploadTexture replaces texture slot kind of mesh id.
func (u *Uploader) UploadTexture(id uuid.UUID, kind mesh.TextureKind, img *image.RGBA) error {
	gm := u.get(id)
	tex, ok := gm.textures[kind]
	if !ok {
		gl.GenTextures(1, &tex)
		gm.textures[kind] = tex
	}
	w, h := int32(img.Bounds().Dx()), int32(img.Bounds().Dy())
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return checkError("upload texture")
}

// Release frees the GL storage of mesh id.
func (u *Uploader) Release(id uuid.UUID) {
	gm, ok := u.meshes[id]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gm.vao)
	gl.DeleteBuffers(int32(numLocations), &gm.vbos[0])
	gl.DeleteBuffers(1, &gm.triEBO)
	gl.DeleteBuffers(1, &gm.lineEBO)
	for _, tex := range gm.textures {
		gl.DeleteTextures(1, &tex)
	}
	delete(u.meshes, id)
}

// Close frees every mesh.
func (u *Uploader) Close() {
	for id := range u.meshes {
		u.Release(id)
	}
}
