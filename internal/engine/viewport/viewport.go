// Package viewport maps layout rectangles onto the bottom-left origin
// viewport and scissor coordinates used by OpenGL.
package viewport

// Rect is an axis-aligned rectangle in layout space (y grows downward),
// relative to the top-left of the canvas.
type Rect struct {
	Left, Top, Right, Bottom float32
}

// Width returns the horizontal extent.
func (r Rect) Width() float32 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() float32 { return r.Bottom - r.Top }

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy float32) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// Contains reports whether the point lies inside r (edges inclusive).
func (r Rect) Contains(x, y float32) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Region is a viewport/scissor rectangle in surface coordinates (y grows upward).
type Region struct {
	Left, Bottom, Width, Height float32
}

// Pixels scales the region by the surface pixel ratio and rounds to whole pixels.
func (r Region) Pixels(ratio float32) (x, y, w, h int32) {
	return round(r.Left * ratio), round(r.Bottom * ratio), round(r.Width * ratio), round(r.Height * ratio)
}

func round(v float32) int32 {
	if v < 0 {
		return int32(v - 0.5)
	}
	return int32(v + 0.5)
}

// Offscreen reports whether r lies entirely outside a drawable area of
// width x height anchored at the origin. Rectangles that only touch an
// edge are still considered on screen.
func Offscreen(r Rect, width, height float32) bool {
	return r.Bottom < 0 ||
		r.Top > height ||
		r.Right < 0 ||
		r.Left > width
}

// RegionFor converts a visible layout rectangle into a surface region,
// flipping the vertical axis against the drawable height.
func RegionFor(r Rect, drawableHeight float32) Region {
	return Region{
		Left:   r.Left,
		Bottom: drawableHeight - r.Bottom,
		Width:  r.Width(),
		Height: r.Height(),
	}
}

// ClampPixelRatio bounds a device pixel ratio to [1, max]. A max below 1 is treated as 1.
func ClampPixelRatio(dpr, max float32) float32 {
	if max < 1 {
		max = 1
	}
	if dpr < 1 {
		return 1
	}
	if dpr > max {
		return max
	}
	return dpr
}
