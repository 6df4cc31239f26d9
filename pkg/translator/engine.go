package translator

import (
	"fmt"
	"sort"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"
)

// ActionType tells the output side what to do with an inbound message
type ActionType uint8

const (
	ActionDrop ActionType = iota
	ActionEmit
	ActionPassthrough
)

func (t ActionType) String() string {
	switch t {
	case ActionEmit:
		return "emit"
	case ActionPassthrough:
		return "passthrough"
	default:
		return "drop"
	}
}

// Action is the result of handling one inbound message
type Action struct {
	Type ActionType

	// Set for ActionEmit
	Kind    Kind
	Channel uint8
	Number  uint8
	Value   uint8

	// Set for ActionPassthrough
	Raw []byte
}

// Bytes returns the bytes to transmit, or nil for a drop
func (a Action) Bytes() []byte {
	switch a.Type {
	case ActionEmit:
		return Encode(a.Kind, a.Channel, a.Number, a.Value)
	case ActionPassthrough:
		return a.Raw
	default:
		return nil
	}
}

// Message returns the action as a gomidi message, or nil for a drop
func (a Action) Message() midi.Message {
	b := a.Bytes()
	if b == nil {
		return nil
	}
	return midi.Message(b)
}

func (a Action) String() string {
	switch a.Type {
	case ActionEmit:
		return fmt.Sprintf("emit %s ch%d #%d = %d", a.Kind, a.Channel, a.Number, a.Value)
	case ActionPassthrough:
		return fmt.Sprintf("passthrough [% X]", a.Raw)
	default:
		return "drop"
	}
}

// Policy decides what happens to messages the classifier does not understand
type Policy uint8

const (
	PolicyPassthrough Policy = iota
	PolicyDrop
)

// ParsePolicy parses "passthrough" or "drop". The empty string is passthrough.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "passthrough":
		return PolicyPassthrough, nil
	case "drop":
		return PolicyDrop, nil
	default:
		return PolicyPassthrough, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

func (p Policy) String() string {
	if p == PolicyDrop {
		return "drop"
	}
	return "passthrough"
}

// BankOp is the operation bound to a bank-select control
type BankOp uint8

const (
	BankSelect BankOp = iota
	BankNext
	BankPrev
)

func (op BankOp) String() string {
	switch op {
	case BankNext:
		return "next"
	case BankPrev:
		return "prev"
	default:
		return "select"
	}
}

// BankSwitch binds an input key to a bank change. The switch fires when the
// control sends a non-zero value; the release is consumed silently, including
// the note off that ends a note on switch.
type BankSwitch struct {
	Key  Key
	Op   BankOp
	Bank int // target id for BankSelect
}

// Stats are running counters of the engine
type Stats struct {
	Received    uint64 `json:"received"`
	Emitted     uint64 `json:"emitted"`
	Passthrough uint64 `json:"passthrough"`
	Dropped     uint64 `json:"dropped"`
	Errors      uint64 `json:"errors"`
	BankChanges uint64 `json:"bank_changes"`
}

type counters struct {
	received, emitted, passthrough, dropped, errors, bankChanges atomic.Uint64
}

// Engine translates inbound messages into output actions. It performs no I/O.
type Engine struct {
	table        atomic.Pointer[Table]
	banks        *BankState
	switches     map[Key]BankSwitch
	unclassified Policy
	stats        counters
}

// Option configures an Engine
type Option func(*Engine) error

// WithUnclassified sets the policy for messages that cannot be classified
func WithUnclassified(p Policy) Option {
	return func(e *Engine) error {
		e.unclassified = p
		return nil
	}
}

// WithBankSwitches binds controls to bank changes
func WithBankSwitches(switches []BankSwitch) Option {
	return func(e *Engine) error {
		for i, sw := range switches {
			if err := sw.Key.Validate(); err != nil {
				return fmt.Errorf("bank switch %d: %w", i+1, err)
			}
			if _, exists := e.switches[sw.Key]; exists {
				return fmt.Errorf("bank switch %d: %w: %s", i+1, ErrDuplicateKey, sw.Key)
			}
			if sw.Op == BankSelect {
				if _, ok := e.banks.banks[sw.Bank]; !ok {
					return fmt.Errorf("bank switch %d: %w: %d", i+1, ErrUnknownBank, sw.Bank)
				}
			}
			e.switches[sw.Key] = sw
		}
		return nil
	}
}

// WithMapping installs an initial mapping
func WithMapping(entries []Entry) Option {
	return func(e *Engine) error {
		return e.Install(entries)
	}
}

// New creates an engine with its own bank state. The mapping starts empty
// unless WithMapping is given, so every message passes through.
func New(banks []Bank, opts ...Option) (*Engine, error) {
	bs, err := NewBankState(banks)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		banks:    bs,
		switches: make(map[Key]BankSwitch),
	}
	e.table.Store(&Table{rules: map[Key]Rule{}})

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Install validates entries and atomically replaces the active table.
// On error the previous table stays active.
func (e *Engine) Install(entries []Entry) error {
	t, err := NewTable(entries)
	if err != nil {
		return err
	}
	e.table.Store(t)
	return nil
}

// Table returns the active table
func (e *Engine) Table() *Table {
	return e.table.Load()
}

// Banks returns the engine's bank state
func (e *Engine) Banks() *BankState {
	return e.banks
}

// Switches returns the configured bank-select controls
func (e *Engine) Switches() []BankSwitch {
	out := make([]BankSwitch, 0, len(e.switches))
	for _, sw := range e.switches {
		out = append(out, sw)
	}
	sort.Slice(out, func(i, j int) bool {
		return keyLess(out[i].Key, out[j].Key)
	})
	return out
}

// Unclassified returns the policy for unclassifiable messages
func (e *Engine) Unclassified() Policy {
	return e.unclassified
}

// Handle translates one raw message. The returned error is only set for a
// failed transform, in which case the action is a drop; the engine stays
// usable for subsequent messages.
func (e *Engine) Handle(raw []byte) (Action, error) {
	e.stats.received.Add(1)

	if len(raw) == 0 {
		return e.drop(), nil
	}

	key, value, ok := Classify(raw)
	if !ok {
		if e.unclassified == PolicyDrop {
			return e.drop(), nil
		}
		return e.passthrough(raw), nil
	}

	if sw, ok := e.switches[key]; ok {
		if value > 0 {
			e.switchBank(sw)
		}
		return e.drop(), nil
	}
	if key.Kind == NoteOff {
		// release of a note bound switch
		if _, ok := e.switches[Key{Kind: NoteOn, Channel: key.Channel, Number: key.Number}]; ok {
			return e.drop(), nil
		}
	}

	rule, ok := e.table.Load().Lookup(key)
	if !ok {
		return e.passthrough(raw), nil
	}

	channel, number := e.banks.Resolve(rule)
	out, err := rule.Transform.Apply(value)
	if err != nil {
		e.stats.errors.Add(1)
		e.stats.dropped.Add(1)
		return Action{Type: ActionDrop}, fmt.Errorf("%s: %w", key, err)
	}

	e.stats.emitted.Add(1)
	return Action{
		Type:    ActionEmit,
		Kind:    rule.Kind,
		Channel: channel,
		Number:  number,
		Value:   out,
	}, nil
}

func (e *Engine) switchBank(sw BankSwitch) {
	before := e.banks.Current().ID
	switch sw.Op {
	case BankNext:
		e.banks.Next()
	case BankPrev:
		e.banks.Prev()
	default:
		// validated at construction
		_, _ = e.banks.Select(sw.Bank)
	}
	if e.banks.Current().ID != before {
		e.stats.bankChanges.Add(1)
	}
}

// SelectBank switches banks on behalf of an external caller
func (e *Engine) SelectBank(id int) (Bank, error) {
	before := e.banks.Current().ID
	b, err := e.banks.Select(id)
	if err == nil && b.ID != before {
		e.stats.bankChanges.Add(1)
	}
	return b, err
}

// NextBank steps to the next bank on behalf of an external caller
func (e *Engine) NextBank() Bank {
	e.switchBank(BankSwitch{Op: BankNext})
	return e.banks.Current()
}

// PrevBank steps to the previous bank on behalf of an external caller
func (e *Engine) PrevBank() Bank {
	e.switchBank(BankSwitch{Op: BankPrev})
	return e.banks.Current()
}

func (e *Engine) drop() Action {
	e.stats.dropped.Add(1)
	return Action{Type: ActionDrop}
}

func (e *Engine) passthrough(raw []byte) Action {
	e.stats.passthrough.Add(1)
	return Action{Type: ActionPassthrough, Raw: append([]byte(nil), raw...)}
}

// Stats returns a snapshot of the counters
func (e *Engine) Stats() Stats {
	return Stats{
		Received:    e.stats.received.Load(),
		Emitted:     e.stats.emitted.Load(),
		Passthrough: e.stats.passthrough.Load(),
		Dropped:     e.stats.dropped.Load(),
		Errors:      e.stats.errors.Load(),
		BankChanges: e.stats.bankChanges.Load(),
	}
}
