// Package translator reinterprets controller MIDI messages according to a mapping table
package translator

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the translator
var (
	ErrInvalidKey       = errors.New("invalid message key")
	ErrInvalidRule      = errors.New("invalid translation rule")
	ErrDuplicateKey     = errors.New("duplicate message key")
	ErrUnknownBank      = errors.New("unknown bank")
	ErrInvalidTransform = errors.New("invalid transform")
	ErrTransform        = errors.New("transform failed")
	ErrInvalidPolicy    = errors.New("unknown unclassified policy")
)

// Kind is the type of a channel message the translator understands
type Kind uint8

const (
	ControlChange Kind = iota
	NoteOn
	NoteOff
)

// String returns the configuration name of the kind
func (k Kind) String() string {
	switch k {
	case ControlChange:
		return "cc"
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	return k <= NoteOff
}

// ParseKind parses a kind name as written in configuration files
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cc", "control_change":
		return ControlChange, nil
	case "note_on", "noteon":
		return NoteOn, nil
	case "note_off", "noteoff":
		return NoteOff, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, s)
	}
}

// Key identifies an input event. Channel is 0-based.
type Key struct {
	Kind    Kind
	Channel uint8 // 0-15
	Number  uint8 // 0-127
}

// Validate checks the key ranges
func (k Key) Validate() error {
	if !k.Kind.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidKey, k.Kind)
	}
	if k.Channel > 15 {
		return fmt.Errorf("%w: channel %d (must be 0-15)", ErrInvalidKey, k.Channel)
	}
	if k.Number > 127 {
		return fmt.Errorf("%w: number %d (must be 0-127)", ErrInvalidKey, k.Number)
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s ch%d #%d", k.Kind, k.Channel, k.Number)
}

// Class selects which bank offset applies to a bank sensitive rule
type Class uint8

const (
	ClassNone   Class = iota
	ClassFader        // offsets the output channel by the bank's fader offset
	ClassDevice       // offsets the output number by the bank's device offset
)

func (c Class) String() string {
	switch c {
	case ClassFader:
		return "fader"
	case ClassDevice:
		return "device"
	default:
		return ""
	}
}

// ParseClass parses a bank class name. The empty string is ClassNone.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ClassNone, nil
	case "fader":
		return ClassFader, nil
	case "device", "knob":
		return ClassDevice, nil
	default:
		return ClassNone, fmt.Errorf("%w: unknown bank class %q", ErrInvalidRule, s)
	}
}

// Rule describes the message emitted for a mapped key
type Rule struct {
	Kind          Kind
	Channel       uint8
	Number        uint8
	Transform     Transform
	BankSensitive bool
	Class         Class
}

// Validate checks the output ranges, the transform and the bank class
func (r Rule) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: output kind %s", ErrInvalidRule, r.Kind)
	}
	if r.Channel > 15 {
		return fmt.Errorf("%w: output channel %d (must be 0-15)", ErrInvalidRule, r.Channel)
	}
	if r.Number > 127 {
		return fmt.Errorf("%w: output number %d (must be 0-127)", ErrInvalidRule, r.Number)
	}
	if r.BankSensitive && r.Class == ClassNone {
		return fmt.Errorf("%w: bank sensitive rule needs a fader or device class", ErrInvalidRule)
	}
	if err := r.Transform.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	return nil
}

func (r Rule) String() string {
	s := fmt.Sprintf("%s ch%d #%d %s", r.Kind, r.Channel, r.Number, r.Transform)
	if r.BankSensitive {
		s += " bank:" + r.Class.String()
	}
	return s
}

// Entry is a single key to rule binding
type Entry struct {
	Key  Key
	Rule Rule
}
