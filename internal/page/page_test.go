package page

import (
	"testing"

	"github.com/Faultbox/multiscene/internal/engine/viewport"
)

func TestDefaultLayout(t *testing.T) {
	p, err := New(DefaultLayout(), 1280, 720)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cells := p.QuerySelectorAll(ClassSceneContainer)
	if len(cells) != 2 {
		t.Fatalf("expected 2 scene containers, got %d", len(cells))
	}
	full := p.QuerySelector(ClassFullWidthScene)
	if full == nil {
		t.Fatal("expected a full-width scene element")
	}

	a, b := cells[0].BoundingClientRect(), cells[1].BoundingClientRect()
	if a.Top != b.Top || a.Height() != b.Height() {
		t.Errorf("cells should share a row: %+v %+v", a, b)
	}
	if a.Right+24 != b.Left {
		t.Errorf("expected 24px gap between cells, got %+v %+v", a, b)
	}
	if fw := full.BoundingClientRect(); fw.Width() != 1280-2*24 {
		t.Errorf("full-width scene width = %f, want %f", fw.Width(), float32(1280-2*24))
	}
	if full.BoundingClientRect().Top <= a.Bottom {
		t.Error("full-width scene should be below the scene containers")
	}
}

func TestScrollMovesElementsNotContainer(t *testing.T) {
	p, err := New(DefaultLayout(), 1280, 720)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cell := p.QuerySelectorAll(ClassSceneContainer)[0]
	before := cell.BoundingClientRect()

	p.ScrollBy(100)

	after := cell.BoundingClientRect()
	if after != before.Translate(0, -100) {
		t.Errorf("after scroll: %+v, want %+v", after, before.Translate(0, -100))
	}
	if got := p.Container().BoundingClientRect(); got != (viewport.Rect{Right: 1280, Bottom: 720}) {
		t.Errorf("container moved with scroll: %+v", got)
	}
	if w, h := cell.ClientSize(); w != before.Width() || h != before.Height() {
		t.Errorf("client size changed by scrolling: %fx%f", w, h)
	}
}

func TestScrollClamping(t *testing.T) {
	p, err := New(DefaultLayout(), 1280, 720)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p.ScrollBy(-50)
	if p.ScrollY() != 0 {
		t.Errorf("scroll above top: got %f, want 0", p.ScrollY())
	}

	p.ScrollBy(1e6)
	if p.ScrollY() != p.ContentHeight()-720 {
		t.Errorf("scroll past end: got %f, want %f", p.ScrollY(), p.ContentHeight()-720)
	}

	// Growing the window past the content height pins scroll to zero.
	p.SetViewportSize(1280, p.ContentHeight()+10)
	if p.ScrollY() != 0 {
		t.Errorf("scroll after tall resize: got %f, want 0", p.ScrollY())
	}
}

func TestGetElementByID(t *testing.T) {
	layout := DefaultLayout()
	layout.Sections[1].ID = "pair"
	layout.Sections[3].ID = "hero"

	p, err := New(layout, 800, 600)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.GetElementByID("gl") != p.Container() {
		t.Error("container lookup failed")
	}
	if e := p.GetElementByID("pair-2"); e == nil || e.Class != ClassSceneContainer {
		t.Errorf("pair-2 lookup = %+v", e)
	}
	if e := p.GetElementByID("hero"); e == nil || e.Class != ClassFullWidthScene {
		t.Errorf("hero lookup = %+v", e)
	}
	if p.GetElementByID("missing") != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestElementAt(t *testing.T) {
	p, err := New(DefaultLayout(), 1280, 720)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cell := p.QuerySelectorAll(ClassSceneContainer)[1]
	r := cell.BoundingClientRect()

	if got := p.ElementAt(r.Left+1, r.Top+1); got != cell {
		t.Errorf("ElementAt inside second cell = %+v", got)
	}
	if got := p.ElementAt(1, 1); got != nil {
		t.Errorf("ElementAt in margin = %+v, want nil", got)
	}
}

func TestNewRejectsBadLayout(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
	}{
		{"no container", Layout{Sections: []Section{{Height: 10}}}},
		{"zero height", Layout{ContainerID: "gl", Sections: []Section{{Height: 0}}}},
		{"no columns", Layout{ContainerID: "gl", Sections: []Section{{Class: "x", Height: 10}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.layout, 100, 100); err == nil {
				t.Error("expected error")
			}
		})
	}
}
