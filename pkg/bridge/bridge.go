// Package bridge connects a translator engine to MIDI ports
package bridge

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/james-see/launchkey2daw/pkg/translator"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Recorder receives every message written to the output
type Recorder interface {
	Add(msg []byte)
}

// Event describes one handled inbound message
type Event struct {
	At     time.Time
	In     []byte
	Action translator.Action
	Bank   translator.Bank
	Err    error
}

// Bridge feeds inbound messages through the engine and writes the result
// with send. Send failures are logged and counted; they never stop the bridge.
type Bridge struct {
	engine   *translator.Engine
	send     func(midi.Message) error
	logger   *slog.Logger
	quiet    bool
	recorder Recorder
	now      func() time.Time

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int

	sendErrors atomic.Uint64
}

// Option configures a Bridge
type Option func(*Bridge)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// Quiet suppresses the per-message log lines
func Quiet(q bool) Option {
	return func(b *Bridge) { b.quiet = q }
}

// WithRecorder copies every sent message to r
func WithRecorder(r Recorder) Option {
	return func(b *Bridge) { b.recorder = r }
}

// New creates a bridge
func New(engine *translator.Engine, send func(midi.Message) error, opts ...Option) *Bridge {
	b := &Bridge{
		engine: engine,
		send:   send,
		logger: slog.Default(),
		now:    time.Now,
		subs:   make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Listen starts handling messages from in until stop is called
func (b *Bridge) Listen(in drivers.In) (stop func(), err error) {
	stop, err = midi.ListenTo(in, b.HandleMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", in.String(), err)
	}
	return stop, nil
}

// HandleMessage is a midi.ListenTo callback
func (b *Bridge) HandleMessage(msg midi.Message, timestampms int32) {
	in := []byte(msg)
	before := b.engine.Banks().Current().ID
	act, err := b.engine.Handle(in)
	ev := Event{
		At:     b.now(),
		In:     append([]byte(nil), in...),
		Action: act,
		Bank:   b.engine.Banks().Current(),
		Err:    err,
	}

	if ev.Bank.ID != before {
		b.logger.Info("bank changed", "bank", ev.Bank.ID, "name", ev.Bank.Name)
	}
	if err != nil {
		b.logger.Warn("transform failed", "in", fmt.Sprintf("% X", in), "error", err)
	}

	if out := act.Message(); out != nil {
		if !b.quiet {
			b.logAction(in, act, ev.Bank)
		}
		if serr := b.send(out); serr != nil {
			b.sendErrors.Add(1)
			b.logger.Error("send failed", "out", act.String(), "error", serr)
			if ev.Err == nil {
				ev.Err = serr
			}
		} else if b.recorder != nil {
			b.recorder.Add(out)
		}
	}

	b.publish(ev)
}

func (b *Bridge) logAction(in []byte, act translator.Action, bank translator.Bank) {
	switch act.Type {
	case translator.ActionEmit:
		b.logger.Info("translated",
			"in", fmt.Sprintf("% X", in),
			"out", fmt.Sprintf("% X", act.Bytes()),
			"msg", act.Message().String(),
			"bank", bank.Name)
	case translator.ActionPassthrough:
		b.logger.Info("passthrough", "in", fmt.Sprintf("% X", in))
	}
}

// Subscribe returns a channel receiving every event and a func that ends the
// subscription. Events are dropped when the channel is full.
func (b *Bridge) Subscribe(buf int) (<-chan Event, func()) {
	ch := make(chan Event, buf)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bridge) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SendErrors returns the number of failed writes to the output
func (b *Bridge) SendErrors() uint64 {
	return b.sendErrors.Load()
}

// Engine returns the engine driving the bridge
func (b *Bridge) Engine() *translator.Engine {
	return b.engine
}
