package colorutil

import (
	"errors"
	"testing"
)

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		name       string
		hex        string
		forShaders bool
		want       RGB
	}{
		{"red with hash", "#ff0000", false, RGB{255, 0, 0}},
		{"red for shaders", "ff0000", true, RGB{1, 0, 0}},
		{"upper case", "#00FF80", false, RGB{0, 255, 128}},
		{"white for shaders", "#ffffff", true, RGB{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HexToRGB(tt.hex, tt.forShaders)
			if err != nil {
				t.Fatalf("HexToRGB(%q) error: %v", tt.hex, err)
			}
			if got != tt.want {
				t.Errorf("HexToRGB(%q, %v) = %+v, want %+v", tt.hex, tt.forShaders, got, tt.want)
			}
		})
	}
}

func TestHexToRGBMalformed(t *testing.T) {
	inputs := []string{"not-a-color", "", "#fff", "#ff00001", "##ff0000", "gg0000", " ff0000"}

	for _, in := range inputs {
		_, err := HexToRGB(in, false)
		if err == nil {
			t.Errorf("HexToRGB(%q) expected error", in)
			continue
		}
		if !errors.Is(err, ErrMalformedInput) {
			t.Errorf("HexToRGB(%q) error %v is not ErrMalformedInput", in, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Input != in {
			t.Errorf("HexToRGB(%q) expected *ParseError carrying the input, got %v", in, err)
		}
	}
}

func TestParseHex(t *testing.T) {
	v, err := ParseHex("#336699")
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	want := [3]float32{0x33 / 255.0, 0x66 / 255.0, 0x99 / 255.0}
	for i := range want {
		if diff := v[i] - want[i]; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("component %d = %f, want %f", i, v[i], want[i])
		}
	}
}

func TestParseHexRejectsMalformed(t *testing.T) {
	for _, in := range []string{"nope", "#12", "#gggggg", ""} {
		if _, err := ParseHex(in); err == nil {
			t.Errorf("ParseHex(%q) = nil error", in)
		}
	}
}
