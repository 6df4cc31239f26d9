package probe

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLine(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	line := Line(at, 1500*time.Microsecond, []byte{0xB0, 0x15, 0x64})

	for _, want := range []string{"1700000000.123", "delta=0.001500", "bytes=[B0 15 64]", "msg="} {
		if !strings.Contains(line, want) {
			t.Errorf("Line() = %q, missing %q", line, want)
		}
	}
}

func TestPrinterDelta(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.now = func() time.Time { return time.UnixMilli(0) }

	p.HandleMessage([]byte{0x90, 0x30, 0x7F}, 1000)
	p.HandleMessage([]byte{0x80, 0x30, 0x00}, 1250)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "delta=0.000000") {
		t.Errorf("first line delta: %q", lines[0])
	}
	if !strings.Contains(lines[1], "delta=0.250000") || !strings.Contains(lines[1], "bytes=[80 30 00]") {
		t.Errorf("second line: %q", lines[1])
	}
}
