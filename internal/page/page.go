// Package page models the scrollable document that hosts scene placeholders.
//
// A page is a vertical stack of sections. Sections with a class produce one
// element per column; sections without a class are spacers. The canvas
// element (the container id) is fixed to the window and does not scroll,
// so every other element's client rectangle moves as the page scrolls.
package page

import (
	"fmt"

	"github.com/Faultbox/multiscene/internal/engine/viewport"
)

// Class names used by the default layout.
const (
	ClassSceneContainer = "scene-container"
	ClassFullWidthScene = "full-width-scene"
)

// Placeholder is the part of an element the renderer needs: where it is on
// the canvas right now and how large it is.
type Placeholder interface {
	BoundingClientRect() viewport.Rect
	ClientSize() (width, height float32)
}

// Section is one horizontal band of the page.
type Section struct {
	Class   string  `yaml:"class"`
	ID      string  `yaml:"id"`
	Height  float32 `yaml:"height"`
	Columns int     `yaml:"columns"`
	Gap     float32 `yaml:"gap"`
}

// Layout describes a page.
type Layout struct {
	ContainerID string    `yaml:"container_id"`
	Margin      float32   `yaml:"margin"`
	Spacing     float32   `yaml:"spacing"`
	Sections    []Section `yaml:"sections"`
}

// DefaultLayout returns two side-by-side scene cells followed by one
// full-width scene, separated by text-sized spacers.
func DefaultLayout() Layout {
	return Layout{
		ContainerID: "gl",
		Margin:      24,
		Spacing:     32,
		Sections: []Section{
			{Height: 360},
			{Class: ClassSceneContainer, Height: 480, Columns: 2, Gap: 24},
			{Height: 420},
			{Class: ClassFullWidthScene, Height: 640, Columns: 1},
			{Height: 360},
		},
	}
}

// Element is a laid-out node of the page.
type Element struct {
	ID    string
	Class string

	page  *Page
	rect  viewport.Rect // page space
	fixed bool
}

// BoundingClientRect returns the element rectangle relative to the canvas.
func (e *Element) BoundingClientRect() viewport.Rect {
	if e.fixed {
		return e.rect
	}
	return e.rect.Translate(0, -e.page.scrollY)
}

// ClientSize returns the element's width and height.
func (e *Element) ClientSize() (width, height float32) {
	return e.rect.Width(), e.rect.Height()
}

// Page is a laid-out, scrollable document.
type Page struct {
	layout   Layout
	width    float32
	height   float32
	scrollY  float32
	contentH float32

	container *Element
	elements  []*Element
}

// New lays out the page for a viewport of width x height.
func New(layout Layout, width, height float32) (*Page, error) {
	if layout.ContainerID == "" {
		return nil, fmt.Errorf("page: layout has no container id")
	}
	for i, s := range layout.Sections {
		if s.Height <= 0 {
			return nil, fmt.Errorf("page: section %d has non-positive height %v", i, s.Height)
		}
		if s.Class != "" && s.Columns < 1 {
			return nil, fmt.Errorf("page: section %d (%s) needs at least one column", i, s.Class)
		}
	}

	p := &Page{layout: layout}
	p.container = &Element{ID: layout.ContainerID, page: p, fixed: true}
	for _, s := range layout.Sections {
		if s.Class == "" {
			continue
		}
		for c := 0; c < s.Columns; c++ {
			id := s.ID
			if id != "" && s.Columns > 1 {
				id = fmt.Sprintf("%s-%d", s.ID, c+1)
			}
			p.elements = append(p.elements, &Element{ID: id, Class: s.Class, page: p})
		}
	}
	p.SetViewportSize(width, height)
	return p, nil
}

// SetViewportSize relayouts the page for a new window size and re-clamps the scroll offset.
func (p *Page) SetViewportSize(width, height float32) {
	p.width = width
	p.height = height
	p.container.rect = viewport.Rect{Right: width, Bottom: height}

	y := p.layout.Margin
	idx := 0
	inner := width - 2*p.layout.Margin
	for i, s := range p.layout.Sections {
		if i > 0 {
			y += p.layout.Spacing
		}
		if s.Class != "" {
			cellW := (inner - s.Gap*float32(s.Columns-1)) / float32(s.Columns)
			if cellW < 0 {
				cellW = 0
			}
			for c := 0; c < s.Columns; c++ {
				left := p.layout.Margin + float32(c)*(cellW+s.Gap)
				p.elements[idx].rect = viewport.Rect{Left: left, Top: y, Right: left + cellW, Bottom: y + s.Height}
				idx++
			}
		}
		y += s.Height
	}
	p.contentH = y + p.layout.Margin
	p.ScrollTo(p.scrollY)
}

// ViewportSize returns the window size the page is laid out for.
func (p *Page) ViewportSize() (width, height float32) {
	return p.width, p.height
}

// ContentHeight returns the full document height.
func (p *Page) ContentHeight() float32 {
	return p.contentH
}

// ScrollY returns the current scroll offset.
func (p *Page) ScrollY() float32 {
	return p.scrollY
}

// MaxScroll returns the largest valid scroll offset.
func (p *Page) MaxScroll() float32 {
	if m := p.contentH - p.height; m > 0 {
		return m
	}
	return 0
}

// ScrollTo sets the scroll offset, clamped to the document.
func (p *Page) ScrollTo(y float32) {
	if y < 0 {
		y = 0
	}
	if m := p.MaxScroll(); y > m {
		y = m
	}
	p.scrollY = y
}

// ScrollBy moves the scroll offset by dy (positive scrolls down).
func (p *Page) ScrollBy(dy float32) {
	p.ScrollTo(p.scrollY + dy)
}

// Container returns the fixed canvas host element.
func (p *Page) Container() *Element {
	return p.container
}

// GetElementByID returns the element with the given id, or nil.
func (p *Page) GetElementByID(id string) *Element {
	if id == p.container.ID {
		return p.container
	}
	for _, e := range p.elements {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// QuerySelectorAll returns the elements of a class in document order.
func (p *Page) QuerySelectorAll(class string) []*Element {
	var out []*Element
	for _, e := range p.elements {
		if e.Class == class {
			out = append(out, e)
		}
	}
	return out
}

// QuerySelector returns the first element of a class, or nil.
func (p *Page) QuerySelector(class string) *Element {
	for _, e := range p.elements {
		if e.Class == class {
			return e
		}
	}
	return nil
}

// ElementAt returns the topmost element under a canvas point, or nil.
func (p *Page) ElementAt(x, y float32) *Element {
	for i := len(p.elements) - 1; i >= 0; i-- {
		if p.elements[i].BoundingClientRect().Contains(x, y) {
			return p.elements[i]
		}
	}
	return nil
}
