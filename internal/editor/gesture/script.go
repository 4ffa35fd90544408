// internal/editor/gesture/script.go
package gesture

import (
	"errors"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventType names a gesture step.
type EventType string

const (
	EventStart EventType = "start"
	EventOver  EventType = "over"
	EventEnd   EventType = "end"
	// EventDrag expands into a start, a synthesized trajectory of overs and an end.
	EventDrag EventType = "drag"
)

var ErrInvalidScript = errors.New("invalid gesture script")

// Event is one step of a gesture script. Targets are "#<component id>" or an
// XPath expression.
type Event struct {
	Type   EventType `json:"type"`
	Target string    `json:"target,omitempty"`
	X      *float64  `json:"x,omitempty"`
	Y      *float64  `json:"y,omitempty"`

	// Drag only.
	From  string  `json:"from,omitempty"`
	To    string  `json:"to,omitempty"`
	Steps int     `json:"steps,omitempty"`
	Bend  float64 `json:"bend,omitempty"`
}

// Point returns the explicit coordinates of the event, if both are set.
func (e Event) Point() (Vector2D, bool) {
	if e.X == nil || e.Y == nil {
		return Vector2D{}, false
	}
	return Vector2D{X: *e.X, Y: *e.Y}, true
}

// Script is an ordered list of gesture events.
type Script struct {
	Events []Event `json:"events"`
}

// Validate checks that every event is well formed.
func (s *Script) Validate() error {
	for i, e := range s.Events {
		switch e.Type {
		case EventStart:
			if e.Target == "" {
				return fmt.Errorf("%w: event %d: start needs a target", ErrInvalidScript, i)
			}
		case EventOver:
			_, hasPoint := e.Point()
			if e.Target == "" && !hasPoint {
				return fmt.Errorf("%w: event %d: over needs a target or both coordinates", ErrInvalidScript, i)
			}
			if (e.X == nil) != (e.Y == nil) {
				return fmt.Errorf("%w: event %d: x and y must be given together", ErrInvalidScript, i)
			}
		case EventEnd:
		case EventDrag:
			if e.From == "" || e.To == "" {
				return fmt.Errorf("%w: event %d: drag needs from and to", ErrInvalidScript, i)
			}
			if e.Steps < 0 {
				return fmt.Errorf("%w: event %d: negative steps", ErrInvalidScript, i)
			}
		default:
			return fmt.Errorf("%w: event %d: unknown type %q", ErrInvalidScript, i, e.Type)
		}
	}
	return nil
}

// LoadScript decodes and validates a script.
func LoadScript(r io.Reader) (*Script, error) {
	var s Script
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScriptFile reads a script from path.
func LoadScriptFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gesture script: %w", err)
	}
	defer f.Close()
	return LoadScript(f)
}
