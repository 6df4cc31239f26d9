// Package recorder captures the translated output stream as a Standard MIDI File
package recorder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarter = 480
	tempoBPM        = 120.0
)

type event struct {
	at  time.Duration
	msg []byte
}

// Recorder collects timestamped messages. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	start  time.Time
	now    func() time.Time
	events []event
}

// New creates a recorder whose clock starts now
func New() *Recorder {
	r := &Recorder{now: time.Now}
	r.start = r.now()
	return r
}

// Add records a copy of msg at the current time
func (r *Recorder) Add(msg []byte) {
	if len(msg) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{
		at:  r.now().Sub(r.start),
		msg: append([]byte(nil), msg...),
	})
}

// Len returns the number of recorded messages
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// ticks converts elapsed time to ticks at the fixed recording tempo
func ticks(d time.Duration) uint32 {
	return uint32(d.Seconds() * tempoBPM / 60 * ticksPerQuarter)
}

// writable reports whether msg is one complete channel message. System
// messages and anything truncated or overlong would corrupt the track.
func writable(msg []byte) bool {
	if len(msg) == 0 || msg[0] < 0x80 || msg[0] >= 0xF0 {
		return false
	}
	want := 3
	switch msg[0] & 0xF0 {
	case 0xC0, 0xD0:
		want = 2
	}
	if len(msg) != want {
		return false
	}
	for _, b := range msg[1:] {
		if b > 0x7F {
			return false
		}
	}
	return true
}

// WriteTo writes a single-track SMF with the recorded messages
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	events := append([]event(nil), r.events...)
	r.mu.Unlock()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var track smf.Track

	microsecondsPerBeat := uint32(60000000.0 / tempoBPM)
	track.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))

	var last uint32
	for _, ev := range events {
		if !writable(ev.msg) {
			continue
		}
		tick := ticks(ev.at)
		if tick < last {
			tick = last
		}
		track.Add(tick-last, ev.msg)
		last = tick
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return 0, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return 0, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.WriteTo(w)
}

// Save writes the recording to path
func (r *Recorder) Save(path string) error {
	if path == "" {
		return errors.New("no output path")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	if _, err := r.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
