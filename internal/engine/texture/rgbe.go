package texture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// HDR is a linear float RGB image, typically an equirectangular environment map.
type HDR struct {
	Width  int
	Height int
	Pix    []float32 // RGB triplets, row-major, top row first
}

// At returns the linear colour at (x, y).
func (h *HDR) At(x, y int) mgl32.Vec3 {
	i := (y*h.Width + x) * 3
	return mgl32.Vec3{h.Pix[i], h.Pix[i+1], h.Pix[i+2]}
}

// AverageRadiance returns the solid-angle weighted mean colour of an
// equirectangular map. Rows near the poles cover less of the sphere.
func (h *HDR) AverageRadiance() mgl32.Vec3 {
	var sum mgl32.Vec3
	var weight float64
	for y := 0; y < h.Height; y++ {
		lat := (float64(y)+0.5)/float64(h.Height)*math.Pi - math.Pi/2
		w := math.Cos(lat)
		for x := 0; x < h.Width; x++ {
			sum = sum.Add(h.At(x, y).Mul(float32(w)))
		}
		weight += w * float64(h.Width)
	}
	if weight == 0 {
		return mgl32.Vec3{}
	}
	return sum.Mul(float32(1 / weight))
}

var errRGBEHeader = errors.New("rgbe: bad header")

// DecodeRGBE decodes a Radiance .hdr file (32-bit_rle_rgbe, -Y h +X w orientation).
func DecodeRGBE(r io.Reader) (*HDR, error) {
	br := bufio.NewReader(r)

	magic, err := br.ReadString('\n')
	if err != nil || !(strings.HasPrefix(magic, "#?RADIANCE") || strings.HasPrefix(magic, "#?RGBE")) {
		return nil, errRGBEHeader
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("rgbe: reading header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if f, ok := strings.CutPrefix(line, "FORMAT="); ok && f != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("rgbe: unsupported format %q", f)
		}
	}

	res, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("rgbe: reading resolution: %w", err)
	}
	var w, h int
	if _, err := fmt.Sscanf(res, "-Y %d +X %d", &h, &w); err != nil || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("rgbe: unsupported resolution line %q", strings.TrimSpace(res))
	}

	out := &HDR{Width: w, Height: h, Pix: make([]float32, w*h*3)}
	scan := make([]byte, w*4)
	for y := 0; y < h; y++ {
		if err := readScanline(br, scan, w); err != nil {
			return nil, fmt.Errorf("rgbe: scanline %d: %w", y, err)
		}
		for x := 0; x < w; x++ {
			p := scan[x*4 : x*4+4]
			i := (y*w + x) * 3
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = rgbeToFloat(p[0], p[1], p[2], p[3])
		}
	}
	return out, nil
}

// DecodeRGBEBytes is DecodeRGBE over an in-memory file.
func DecodeRGBEBytes(data []byte) (*HDR, error) {
	return DecodeRGBE(bytes.NewReader(data))
}

func rgbeToFloat(r, g, b, e byte) (float32, float32, float32) {
	if e == 0 {
		return 0, 0, 0
	}
	f := float32(math.Ldexp(1, int(e)-136))
	return float32(r) * f, float32(g) * f, float32(b) * f
}

// readScanline fills scan with w RGBE pixels, handling both flat and
// run-length encoded scanlines.
func readScanline(br *bufio.Reader, scan []byte, w int) error {
	head, err := br.Peek(4)
	if err != nil {
		return err
	}
	rle := w >= 8 && w < 0x8000 && head[0] == 2 && head[1] == 2 && head[2]&0x80 == 0
	if !rle {
		_, err := io.ReadFull(br, scan)
		return err
	}
	if int(head[2])<<8|int(head[3]) != w {
		return fmt.Errorf("scanline width mismatch")
	}
	if _, err := br.Discard(4); err != nil {
		return err
	}

	// Channels are stored planar, each run-length encoded.
	for ch := 0; ch < 4; ch++ {
		for x := 0; x < w; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count) - 128
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				if x+n > w {
					return fmt.Errorf("run overflows scanline")
				}
				for ; n > 0; n-- {
					scan[x*4+ch] = v
					x++
				}
				continue
			}
			n := int(count)
			if n == 0 || x+n > w {
				return fmt.Errorf("bad literal run length %d", n)
			}
			for ; n > 0; n-- {
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				scan[x*4+ch] = v
				x++
			}
		}
	}
	return nil
}
