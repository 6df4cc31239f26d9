package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"info", false, false},
		{"debug", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.debug)
			logger.Debug("hidden unless debug")
			logger.Info("always")

			out := buf.String()
			if got := strings.Contains(out, "hidden unless debug"); got != tt.wantDebug {
				t.Errorf("debug record present = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(out, "msg=always") {
				t.Errorf("info record missing: %q", out)
			}
			if tt.debug && !strings.Contains(out, "source=") {
				t.Errorf("debug output should include source: %q", out)
			}
		})
	}
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	logger, closeLog, err := Setup(path, false)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	logger.Info("translated", "out", "B0 07 64")
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "msg=translated") {
		t.Errorf("log file = %q", data)
	}
}

func TestSetupBadPath(t *testing.T) {
	if _, _, err := Setup(filepath.Join(t.TempDir(), "missing", "x.log"), false); err == nil {
		t.Error("Setup() should fail for a missing directory")
	}
}
