package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/tilestate/internal/maximize"
)

// ActionVerb names what a key binding does to the focused window.
type ActionVerb string

const (
	ActionTile             ActionVerb = "tile"
	ActionMaximize         ActionVerb = "maximize"
	ActionToggleMaximize   ActionVerb = "toggle-maximize"
	ActionToggleFullscreen ActionVerb = "toggle-fullscreen"
	ActionFloat            ActionVerb = "float"
	ActionMove             ActionVerb = "move"
	ActionSend             ActionVerb = "send"
)

// Action is a parsed key binding value, e.g. "move -40 0" or "tile columns".
type Action struct {
	Verb         ActionVerb
	Layout       string
	Maximization maximize.Maximization
	DX, DY       int
	Output       string
}

// ParseAction parses the right-hand side of a binding.
func ParseAction(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Action{}, fmt.Errorf("empty action")
	}
	a := Action{Verb: ActionVerb(fields[0])}
	args := fields[1:]

	switch a.Verb {
	case ActionTile:
		if len(args) > 1 {
			return Action{}, fmt.Errorf("tile takes at most a layout name")
		}
		if len(args) == 1 {
			a.Layout = args[0]
		}
	case ActionMaximize, ActionToggleMaximize:
		mode := "full"
		if len(args) > 1 {
			return Action{}, fmt.Errorf("%s takes one maximization", a.Verb)
		}
		if len(args) == 1 {
			mode = args[0]
		} else if a.Verb == ActionMaximize {
			return Action{}, fmt.Errorf("maximize requires none, vertical, horizontal, full or edges")
		}
		m, err := maximize.Parse(mode)
		if err != nil {
			return Action{}, err
		}
		a.Maximization = m
	case ActionToggleFullscreen, ActionFloat:
		if len(args) != 0 {
			return Action{}, fmt.Errorf("%s takes no arguments", a.Verb)
		}
	case ActionMove:
		if len(args) != 2 {
			return Action{}, fmt.Errorf("move requires <dx> <dy>")
		}
		dx, err := strconv.Atoi(args[0])
		if err != nil {
			return Action{}, fmt.Errorf("move dx: %w", err)
		}
		dy, err := strconv.Atoi(args[1])
		if err != nil {
			return Action{}, fmt.Errorf("move dy: %w", err)
		}
		a.DX, a.DY = dx, dy
	case ActionSend:
		if len(args) != 1 {
			return Action{}, fmt.Errorf("send requires an output name")
		}
		a.Output = args[0]
	default:
		return Action{}, fmt.Errorf("unknown action %q", fields[0])
	}
	return a, nil
}

// Actions parses every binding. Keys are xgbutil key sequences such as
// "Mod4-Shift-Left".
func (c *Config) Actions() (map[string]Action, error) {
	out := make(map[string]Action, len(c.Bindings))
	for _, key := range sortedKeys(c.Bindings) {
		a, err := ParseAction(c.Bindings[key])
		if err != nil {
			return nil, &ValidationError{Path: "bindings." + key, Err: err}
		}
		if a.Verb == ActionTile && a.Layout != "" {
			if _, ok := c.Layouts[a.Layout]; !ok {
				return nil, &ValidationError{Path: "bindings." + key, Err: fmt.Errorf("unknown layout %q", a.Layout)}
			}
		}
		out[key] = a
	}
	return out, nil
}
