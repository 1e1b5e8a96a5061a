package mesh

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// TextureKind names one material texture slot.
type TextureKind int

const (
	TextureDiffuse TextureKind = iota
	TextureMetalness
	TextureRoughness
	TextureNormals
)

var textureKinds = []EnumEntry[TextureKind]{
	{TextureDiffuse, "Diffuse"},
	{TextureMetalness, "Metalness"},
	{TextureRoughness, "Roughness"},
	{TextureNormals, "Normals"},
}

// TextureKinds returns every texture slot in declaration order.
func TextureKinds() []EnumEntry[TextureKind] {
	return append([]EnumEntry[TextureKind](nil), textureKinds...)
}

func (k TextureKind) String() string {
	if k >= 0 && int(k) < len(textureKinds) {
		return textureKinds[k].Name
	}
	return "TextureKind(?)"
}

// Texture is a CPU-side image waiting to be (re)uploaded. Dirty is cleared by
// the renderer once uploaded.
type Texture struct {
	Img   image.Image
	Path  string
	Dirty bool
}

// SetTexture stores img in slot kind, downscaled by subsample when it is
// greater than 1. Setting the diffuse texture switches the mesh to texture
// coloring.
func (m *Mesh) SetTexture(kind TextureKind, img image.Image, subsample int) {
	if subsample > 1 {
		img = downscale(img, subsample)
	}
	m.textures[kind] = &Texture{Img: img, Dirty: true}
	if kind == TextureDiffuse {
		m.Vis.ColorType = ColorTexture
	}
	m.Dirty = true
}

// SetTextureFromFile decodes a PNG, JPEG, BMP, TIFF or TGA file into slot
// kind.
func (m *Mesh) SetTextureFromFile(kind TextureKind, path string, subsample int) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open texture %s", path)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return errors.Wrapf(err, "decode texture %s", path)
	}
	m.SetTexture(kind, img, subsample)
	m.textures[kind].Path = path
	m.log().Debug("loaded texture",
		zap.Stringer("kind", kind),
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return nil
}

// Texture returns the image in slot kind, if any.
func (m *Mesh) Texture(kind TextureKind) (*Texture, bool) {
	t, ok := m.textures[kind]
	return t, ok
}

// IsAnyTextureDirty reports whether some texture awaits upload.
func (m *Mesh) IsAnyTextureDirty() bool {
	for _, t := range m.textures {
		if t.Dirty {
			return true
		}
	}
	return false
}

func downscale(src image.Image, factor int) image.Image {
	b := src.Bounds()
	w, h := max(b.Dx()/factor, 1), max(b.Dy()/factor, 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
