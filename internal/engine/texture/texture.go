// Package texture decodes images and environment maps from asset bytes.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp" // register WebP
)

// Decode decodes an LDR image, choosing the decoder by file extension for
// formats without a magic number and by content otherwise.
func Decode(name string, data []byte) (*image.RGBA, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tga":
		return DecodeTGA(data)
	case ".hdr":
		return nil, fmt.Errorf("texture: %s is an HDR file, use DecodeRGBE", name)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("texture: decoding %s: %w", name, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts any image to *image.RGBA, returning it unchanged if it already is one.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
