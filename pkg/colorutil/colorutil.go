// Package colorutil parses hex colour strings for lights, clear colours and shaders.
package colorutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrMalformedInput is returned when a string is not a 6-digit hex colour.
var ErrMalformedInput = errors.New("malformed input")

// ParseError describes a rejected colour string.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("colorutil: %q is not a hex colour: %v", e.Input, ErrMalformedInput)
}

// Unwrap lets errors.Is match ErrMalformedInput.
func (e *ParseError) Unwrap() error {
	return ErrMalformedInput
}

var hexPattern = regexp.MustCompile(`^#?([a-fA-F\d]{2})([a-fA-F\d]{2})([a-fA-F\d]{2})$`)

// RGB holds colour components. Components are 0-255 unless produced for shaders,
// in which case they are in 0..1.
type RGB struct {
	R, G, B float32
}

// HexToRGB parses "#rrggbb" or "rrggbb" (case-insensitive).
// When forShaders is true the components are scaled to 0..1.
func HexToRGB(hex string, forShaders bool) (RGB, error) {
	m := hexPattern.FindStringSubmatch(hex)
	if m == nil {
		return RGB{}, &ParseError{Input: hex}
	}

	var c [3]float32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(m[i+1], 16, 8)
		if err != nil {
			return RGB{}, &ParseError{Input: hex}
		}
		c[i] = float32(v)
		if forShaders {
			c[i] /= 255
		}
	}

	return RGB{R: c[0], G: c[1], B: c[2]}, nil
}

// Vec3 returns the colour as a vector.
func (c RGB) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

// ParseHex parses a hex colour straight into a 0..1 vector.
func ParseHex(hex string) (mgl32.Vec3, error) {
	c, err := HexToRGB(hex, true)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return c.Vec3(), nil
}
