// Package probe prints raw inbound MIDI messages so mappings can be written
// against the numbers a controller actually sends
package probe

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Line formats one received message
func Line(at time.Time, delta time.Duration, msg []byte) string {
	hex := make([]string, len(msg))
	for i, b := range msg {
		hex[i] = fmt.Sprintf("%02X", b)
	}
	return fmt.Sprintf("%.3f  delta=%.6f  bytes=[%s]  msg=%s",
		float64(at.UnixMilli())/1000, delta.Seconds(), strings.Join(hex, " "), midi.Message(msg).String())
}

// Printer writes a Line for every message it receives
type Printer struct {
	mu   sync.Mutex
	w    io.Writer
	now  func() time.Time
	last int32
	seen bool
}

// NewPrinter creates a printer writing to w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, now: time.Now}
}

// HandleMessage is a midi.ListenTo callback. The delta is derived from the
// driver's millisecond timestamps.
func (p *Printer) HandleMessage(msg midi.Message, timestampms int32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var delta time.Duration
	if p.seen {
		delta = time.Duration(timestampms-p.last) * time.Millisecond
	}
	p.last = timestampms
	p.seen = true

	fmt.Fprintln(p.w, Line(p.now(), delta, msg))
}

// Listen starts printing messages from in until stop is called
func Listen(in drivers.In, w io.Writer) (stop func(), err error) {
	p := NewPrinter(w)
	stop, err = midi.ListenTo(in, p.HandleMessage, midi.UseSysEx())
	if err != nil {
		return nil, fmt.Errorf("failed to start listening: %w", err)
	}
	return stop, nil
}
