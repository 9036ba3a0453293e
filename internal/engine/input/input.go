// Package input turns SDL2 events into the small set of events the viewer reacts to.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies an input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventScroll
)

// Event is a processed input event. Mouse coordinates are logical pixels.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int
	DeltaY int
	Button uint8
	Scroll float32
}

// Input polls SDL and buffers the events of one frame.
type Input struct {
	events  []Event
	buttons map[uint8]bool
}

// New creates an input handler.
func New() *Input {
	return &Input{
		events:  make([]Event, 0, 16),
		buttons: make(map[uint8]bool),
	}
}

// Update drains the SDL queue. It returns true once a quit was requested.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		e, ok := Translate(event)
		if !ok {
			continue
		}
		i.track(e)
		i.events = append(i.events, e)
		if e.Type == EventQuit {
			quit = true
		}
	}
	return quit
}

func (i *Input) track(e Event) {
	switch e.Type {
	case EventMouseDown:
		i.buttons[e.Button] = true
	case EventMouseUp:
		delete(i.buttons, e.Button)
	}
}

// Translate converts one SDL event. It reports false for events the viewer ignores.
func Translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			}, true
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return Event{}, false
		}
		switch e.Type {
		case sdl.KEYDOWN:
			return Event{Type: EventKeyDown, Key: e.Keysym.Scancode}, true
		case sdl.KEYUP:
			return Event{Type: EventKeyUp, Key: e.Keysym.Scancode}, true
		}

	case *sdl.MouseMotionEvent:
		return Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		}, true

	case *sdl.MouseButtonEvent:
		ev := Event{
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		}
		switch e.Type {
		case sdl.MOUSEBUTTONDOWN:
			ev.Type = EventMouseDown
			return ev, true
		case sdl.MOUSEBUTTONUP:
			ev.Type = EventMouseUp
			return ev, true
		}

	case *sdl.MouseWheelEvent:
		y := e.Y
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			y = -y
		}
		if y == 0 {
			return Event{}, false
		}
		return Event{Type: EventScroll, Scroll: float32(y)}, true
	}

	return Event{}, false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed reports whether a key went down this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsButtonDown reports whether a mouse button is currently held.
func (i *Input) IsButtonDown(button uint8) bool {
	return i.buttons[button]
}
