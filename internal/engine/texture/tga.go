package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types supported by DecodeTGA.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

var errTGATruncated = errors.New("tga: data truncated")

// DecodeTGA decodes an uncompressed or RLE true-colour TGA image (24 or 32 bpp).
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < 18 {
		return nil, errTGATruncated
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("tga: color-mapped images not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}
	if 18+idLength > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		src:    data[18+idLength:],
		stride: bpp / 8,
		width:  width,
		height: height,
		flip:   !topToBottom,
	}

	if imageType == TGATypeUncompressed {
		if len(d.src) < width*height*d.stride {
			return nil, errTGATruncated
		}
		for i := 0; i < width*height; i++ {
			d.put(i, d.next())
		}
		return d.img, nil
	}

	d.decodeRLE()
	return d.img, nil
}

type tgaDecoder struct {
	img           *image.RGBA
	src           []byte
	pos           int
	stride        int
	width, height int
	flip          bool
}

// next reads one BGR(A) pixel.
func (d *tgaDecoder) next() color.RGBA {
	p := d.src[d.pos : d.pos+d.stride]
	d.pos += d.stride
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.stride == 4 {
		c.A = p[3]
	}
	return c
}

func (d *tgaDecoder) put(i int, c color.RGBA) {
	x, y := i%d.width, i/d.width
	if d.flip {
		y = d.height - 1 - y
	}
	d.img.SetRGBA(x, y, c)
}

// decodeRLE stops quietly at the end of the data; missing pixels stay transparent.
func (d *tgaDecoder) decodeRLE() {
	total := d.width * d.height
	for i := 0; i < total && d.pos < len(d.src); {
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if d.pos+d.stride > len(d.src) {
				return
			}
			c := d.next()
			for ; count > 0 && i < total; count-- {
				d.put(i, c)
				i++
			}
			continue
		}

		for ; count > 0 && i < total; count-- {
			if d.pos+d.stride > len(d.src) {
				return
			}
			d.put(i, d.next())
			i++
		}
	}
}
