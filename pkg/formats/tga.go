package formats

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

func init() {
	// TGA has no magic number; match on "no color map" plus the image type.
	image.RegisterFormat("tga", "?\x00\x02", decodeTGAReader, decodeTGAConfig)
	image.RegisterFormat("tga", "?\x00\x0a", decodeTGAReader, decodeTGAConfig)
}

type tgaHeader struct {
	idLength      int
	imageType     byte
	width, height int
	bpp           int
	topToBottom   bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("TGA data too short")
	}
	h := tgaHeader{
		idLength:    int(data[0]),
		imageType:   data[2],
		width:       int(data[12]) | int(data[13])<<8,
		height:      int(data[14]) | int(data[15])<<8,
		bpp:         int(data[16]),
		topToBottom: data[17]&0x20 != 0,
	}
	if data[1] != 0 {
		return h, fmt.Errorf("color-mapped TGA not supported")
	}
	if h.imageType != TGATypeUncompressed && h.imageType != TGATypeRLE {
		return h, fmt.Errorf("unsupported TGA type %d (only uncompressed/RLE true-color supported)", h.imageType)
	}
	if h.bpp != 24 && h.bpp != 32 {
		return h, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", h.bpp)
	}
	return h, nil
}

// DecodeTGA decodes uncompressed (type 2) and RLE compressed (type 10)
// true-color TGA data.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}
	offset := tgaHeaderSize + h.idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	img := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	px := tgaPixels{img: img, bytesPerPixel: h.bpp / 8, topToBottom: h.topToBottom}
	if h.imageType == TGATypeUncompressed {
		err = px.decodeRaw(data[offset:])
	} else {
		err = px.decodeRLE(data[offset:])
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// tgaPixels writes BGR(A) pixels in file order into img.
type tgaPixels struct {
	img           *image.RGBA
	bytesPerPixel int
	topToBottom   bool
	next          int
}

func (p *tgaPixels) color(src []byte) color.RGBA {
	c := color.RGBA{R: src[2], G: src[1], B: src[0], A: 255}
	if p.bytesPerPixel == 4 {
		c.A = src[3]
	}
	return c
}

func (p *tgaPixels) put(c color.RGBA) {
	w, h := p.img.Rect.Dx(), p.img.Rect.Dy()
	x, y := p.next%w, p.next/w
	if !p.topToBottom {
		y = h - 1 - y
	}
	p.img.SetRGBA(x, y, c)
	p.next++
}

func (p *tgaPixels) count() int {
	return p.img.Rect.Dx() * p.img.Rect.Dy()
}

func (p *tgaPixels) decodeRaw(data []byte) error {
	n := p.count()
	if len(data) < n*p.bytesPerPixel {
		return fmt.Errorf("TGA pixel data truncated")
	}
	for i := 0; i < n; i++ {
		p.put(p.color(data[i*p.bytesPerPixel:]))
	}
	return nil
}

// decodeRLE stops quietly at the end of data; missing pixels stay
// transparent black.
func (p *tgaPixels) decodeRLE(data []byte) error {
	total := p.count()
	i := 0
	for p.next < total && i < len(data) {
		packet := data[i]
		i++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run packet: one pixel repeated
			if i+p.bytesPerPixel > len(data) {
				break
			}
			c := p.color(data[i:])
			i += p.bytesPerPixel
			for j := 0; j < count && p.next < total; j++ {
				p.put(c)
			}
			continue
		}
		// Raw packet
		for j := 0; j < count && p.next < total; j++ {
			if i+p.bytesPerPixel > len(data) {
				return nil
			}
			p.put(p.color(data[i:]))
			i += p.bytesPerPixel
		}
	}
	return nil
}

func decodeTGAReader(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := DecodeTGA(data)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func decodeTGAConfig(r io.Reader) (image.Config, error) {
	header := make([]byte, tgaHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return image.Config{}, err
	}
	h, err := parseTGAHeader(header)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.RGBAModel, Width: h.width, Height: h.height}, nil
}

// EncodeTGA writes img as uncompressed 32-bit TGA, top row first.
func EncodeTGA(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Dx() > 0xFFFF || b.Dy() > 0xFFFF {
		return fmt.Errorf("image %dx%d too large for TGA", b.Dx(), b.Dy())
	}
	var buf bytes.Buffer
	header := make([]byte, tgaHeaderSize)
	header[2] = TGATypeUncompressed
	header[12], header[13] = byte(b.Dx()), byte(b.Dx()>>8)
	header[14], header[15] = byte(b.Dy()), byte(b.Dy()>>8)
	header[16] = 32
	header[17] = 0x20 | 8 // top-to-bottom, 8 alpha bits
	buf.Write(header)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			buf.Write([]byte{c.B, c.G, c.R, c.A})
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}
