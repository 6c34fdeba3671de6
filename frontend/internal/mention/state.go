package mention

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/itchan-dev/forllm/frontend/internal/editor"
	"github.com/itchan-dev/forllm/shared/domain"
)

const DefaultMaxQueryLen = 50

type Mode int

const (
	Idle Mode = iota
	Composing
)

func (m Mode) String() string {
	if m == Composing {
		return "composing"
	}
	return "idle"
}

// State is the mention session of one editor. Anchor is the position of the "@".
// Generation changes whenever the user changes the session, so a delayed blur
// can tell whether anything happened since it was scheduled.
type State struct {
	Mode          Mode
	Query         string
	Anchor        editor.Position
	SelectedIndex int
	Results       []domain.Persona
	LookupFailed  bool
	Generation    uint64
}

func (s State) Active() bool { return s.Mode == Composing }

// Selected returns the highlighted persona, if any.
func (s State) Selected() (domain.Persona, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Results) {
		return domain.Persona{}, false
	}
	return s.Results[s.SelectedIndex], true
}

type Event interface{ isEvent() }

type (
	KeyUp   struct{ Key string }
	KeyDown struct{ Key string }
	// Blur reports focus loss. IntoOverlay is set when focus moved to the suggestion list.
	Blur        struct{ IntoOverlay bool }
	BlurExpired struct{ Generation uint64 }
	Results     struct {
		Query    string
		Personas []domain.Persona
		Err      error
	}
	Click  struct{ Index int }
	Cancel struct{}
)

func (KeyUp) isEvent()       {}
func (KeyDown) isEvent()     {}
func (Blur) isEvent()        {}
func (BlurExpired) isEvent() {}
func (Results) isEvent()     {}
func (Click) isEvent()       {}
func (Cancel) isEvent()      {}

type Effect interface{ isEffect() }

type (
	Lookup struct{ Query string }
	// Commit replaces [From, To) with the persona's mention tag.
	Commit struct {
		Persona  domain.Persona
		From, To editor.Position
	}
	PreventDefault struct{}
	ShowOverlay    struct{}
	HideOverlay    struct{}
	ScheduleBlur   struct{ Generation uint64 }
	Activated      struct{}
)

func (Lookup) isEffect()         {}
func (Commit) isEffect()         {}
func (PreventDefault) isEffect() {}
func (ShowOverlay) isEffect()    {}
func (HideOverlay) isEffect()    {}
func (ScheduleBlur) isEffect()   {}
func (Activated) isEffect()      {}

// Keys that never recompute the query on keyup.
var passiveKeys = map[string]bool{
	"Shift":     true,
	"Control":   true,
	"Alt":       true,
	"Meta":      true,
	"CapsLock":  true,
	"ArrowUp":   true,
	"ArrowDown": true,
	"Enter":     true,
	"Tab":       true,
	"Escape":    true,
}

// Rules holds the tunables of the state machine.
type Rules struct {
	MaxQueryLen int
}

var DefaultRules = Rules{MaxQueryLen: DefaultMaxQueryLen}

// Transition is DefaultRules.Transition.
func Transition(s State, ev Event, buf editor.Reader) (State, []Effect) {
	return DefaultRules.Transition(s, ev, buf)
}

// Transition computes the next state and the effects the caller must apply.
// It reads buf but never modifies it.
func (r Rules) Transition(s State, ev Event, buf editor.Reader) (State, []Effect) {
	switch ev := ev.(type) {
	case KeyUp:
		if passiveKeys[ev.Key] {
			return s, nil
		}
		if s.Mode == Idle {
			return r.activate(s, buf)
		}
		return r.requery(s, buf)

	case KeyDown:
		if s.Mode != Composing {
			return s, nil
		}
		switch ev.Key {
		case "Escape":
			next, effects := cancel(s)
			return next, append(effects, PreventDefault{})
		case "ArrowDown", "ArrowUp":
			next := moveSelection(s, ev.Key == "ArrowDown")
			return next, []Effect{PreventDefault{}, ShowOverlay{}}
		case "Enter", "Tab":
			var (
				next    State
				effects []Effect
			)
			if p, ok := s.Selected(); ok {
				next, effects = commit(s, p, buf)
			} else {
				next, effects = cancel(s)
			}
			return next, append(effects, PreventDefault{})
		}
		return s, nil

	case Blur:
		if s.Mode != Composing || ev.IntoOverlay {
			return s, nil
		}
		return s, []Effect{ScheduleBlur{Generation: s.Generation}}

	case BlurExpired:
		if s.Mode != Composing || ev.Generation != s.Generation {
			return s, nil
		}
		return cancel(s)

	case Results:
		if s.Mode != Composing || ev.Query != s.Query {
			return s, nil
		}
		s.Results = ev.Personas
		s.LookupFailed = ev.Err != nil
		if s.LookupFailed {
			s.Results = nil
		}
		s.SelectedIndex = -1
		return s, []Effect{ShowOverlay{}}

	case Click:
		if s.Mode != Composing || ev.Index < 0 || ev.Index >= len(s.Results) {
			return s, nil
		}
		return commit(s, s.Results[ev.Index], buf)

	case Cancel:
		if s.Mode != Composing {
			return s, nil
		}
		return cancel(s)
	}
	return s, nil
}

func (r Rules) activate(s State, buf editor.Reader) (State, []Effect) {
	cursor := buf.Cursor()
	if cursor.Column < 1 {
		return s, nil
	}
	anchor := editor.Position{Line: cursor.Line, Column: cursor.Column - 1}
	if buf.Text(anchor, cursor) != "@" {
		return s, nil
	}
	next := State{
		Mode:          Composing,
		Anchor:        anchor,
		SelectedIndex: -1,
		Generation:    s.Generation + 1,
	}
	return next, []Effect{Activated{}, Lookup{Query: ""}}
}

func (r Rules) requery(s State, buf editor.Reader) (State, []Effect) {
	cursor := buf.Cursor()
	if cursor.Line != s.Anchor.Line || cursor.Column <= s.Anchor.Column {
		return cancel(s)
	}
	afterAnchor := editor.Position{Line: s.Anchor.Line, Column: s.Anchor.Column + 1}
	if buf.Text(s.Anchor, afterAnchor) != "@" {
		return cancel(s)
	}
	query := buf.Text(afterAnchor, cursor)
	if strings.IndexFunc(query, unicode.IsSpace) >= 0 || utf8.RuneCountInString(query) > r.maxQueryLen() {
		return cancel(s)
	}
	if query == s.Query {
		return s, nil
	}
	s.Query = query
	s.SelectedIndex = -1
	s.Generation++
	return s, []Effect{Lookup{Query: query}}
}

func (r Rules) maxQueryLen() int {
	if r.MaxQueryLen <= 0 {
		return DefaultMaxQueryLen
	}
	return r.MaxQueryLen
}

func moveSelection(s State, down bool) State {
	n := len(s.Results)
	if n == 0 {
		return s
	}
	switch {
	case down:
		s.SelectedIndex = (s.SelectedIndex + 1) % n
	case s.SelectedIndex < 0:
		s.SelectedIndex = n - 1
	default:
		s.SelectedIndex = (s.SelectedIndex - 1 + n) % n
	}
	s.Generation++
	return s
}

func commit(s State, p domain.Persona, buf editor.Reader) (State, []Effect) {
	c := Commit{Persona: p, From: s.Anchor, To: buf.Cursor()}
	return State{SelectedIndex: -1, Generation: s.Generation + 1}, []Effect{c, HideOverlay{}}
}

func cancel(s State) (State, []Effect) {
	return State{SelectedIndex: -1, Generation: s.Generation + 1}, []Effect{HideOverlay{}}
}
