package debug

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFlipRows(t *testing.T) {
	// 1x2: bottom row red, top row blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	img, err := FlipRows(pixels, 1, 2)
	if err != nil {
		t.Fatalf("FlipRows: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("top pixel = %v, want blue", got)
	}
	if got := img.RGBAAt(0, 1); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom pixel = %v, want red", got)
	}

	if _, err := FlipRows(pixels, 2, 2); err == nil {
		t.Error("expected size mismatch error")
	}
	if _, err := FlipRows(nil, 0, 0); err == nil {
		t.Error("expected invalid size error")
	}
}

func TestSavePixels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewScreenshots(dir, "multiscene")
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	pixels := make([]byte, 4*3*4)
	for i := range pixels {
		pixels[i] = 200
	}
	path, err := s.SavePixels(pixels, 4, 3)
	if err != nil {
		t.Fatalf("SavePixels: %v", err)
	}
	if want := filepath.Join(dir, "multiscene_2024-03-01_12-30-00.000.png"); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("bounds = %v", b)
	}
}
