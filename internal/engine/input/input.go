// Package input turns SDL2 events into viewer events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a viewer event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventMouseDrag
	EventMouseWheel
	EventDropFile
	EventClick
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Keycode
	Shift  bool
	Width  int
	Height int
	// Drag deltas in pixels; Button is the held button.
	DX, DY float32
	Button uint8
	// Cursor position of a click, origin top-left.
	X, Y   float32
	Wheel  float32
	Path   string
}

// Input handles all input processing.
type Input struct {
	events []Event
	// dragged is set once the held button moves, so its release is no click.
	dragged bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events. It returns true when the window should close.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
				i.events = append(i.events, Event{
					Type:  EventKeyDown,
					Key:   e.Keysym.Sym,
					Shift: e.Keysym.Mod&sdl.KMOD_SHIFT != 0,
				})
				if e.Keysym.Sym == sdl.K_ESCAPE {
					quit = true
				}
			}

		case *sdl.MouseMotionEvent:
			var button uint8
			switch {
			case e.State&sdl.ButtonLMask() != 0:
				button = sdl.BUTTON_LEFT
			case e.State&sdl.ButtonRMask() != 0:
				button = sdl.BUTTON_RIGHT
			case e.State&sdl.ButtonMMask() != 0:
				button = sdl.BUTTON_MIDDLE
			default:
				continue
			}
			i.dragged = true
			i.events = append(i.events, Event{
				Type:   EventMouseDrag,
				DX:     float32(e.XRel),
				DY:     float32(e.YRel),
				Button: button,
			})

		case *sdl.MouseButtonEvent:
			if e.Type == sdl.MOUSEBUTTONDOWN {
				i.dragged = false
				continue
			}
			if e.Button == sdl.BUTTON_LEFT && !i.dragged {
				i.events = append(i.events, Event{
					Type:   EventClick,
					X:      float32(e.X),
					Y:      float32(e.Y),
					Button: e.Button,
				})
			}

		case *sdl.MouseWheelEvent:
			i.events = append(i.events, Event{Type: EventMouseWheel, Wheel: float32(e.Y)})

		case *sdl.DropEvent:
			if e.Type == sdl.DROPFILE {
				i.events = append(i.events, Event{Type: EventDropFile, Path: e.File})
			}
		}
	}

	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}
