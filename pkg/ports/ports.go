// Package ports finds and opens MIDI ports through the rtmidi driver
package ports

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// ErrNoPorts is returned when the system reports no ports of the requested direction
var ErrNoPorts = errors.New("no MIDI ports available")

// Driver wraps the rtmidi driver
type Driver struct {
	drv *rtmididrv.Driver
}

// Open initializes the rtmidi driver. Call Close when done.
func Open() (*Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create MIDI driver: %w", err)
	}
	return &Driver{drv: drv}, nil
}

// Close shuts down the driver and all ports opened through it
func (d *Driver) Close() error {
	return d.drv.Close()
}

// Inputs lists the input port names
func (d *Driver) Inputs() ([]string, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to get MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// Outputs lists the output port names
func (d *Driver) Outputs() ([]string, error) {
	outs, err := d.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("failed to get MIDI outputs: %w", err)
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

// FindIn returns the first input whose name contains pattern (case
// insensitive), or the first input when pattern is empty or nothing matches
func (d *Driver) FindIn(pattern string) (drivers.In, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to get MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	i, ok := Match(names, pattern)
	if !ok {
		return nil, fmt.Errorf("input %q: %w", pattern, ErrNoPorts)
	}
	return ins[i], nil
}

// OpenOut opens the existing output whose name contains name, or creates a
// virtual output called name. The boolean reports whether the port is virtual.
func (d *Driver) OpenOut(name string) (drivers.Out, bool, error) {
	outs, err := d.drv.Outs()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get MIDI outputs: %w", err)
	}
	for _, out := range outs {
		if ContainsFold(out.String(), name) {
			if err := out.Open(); err != nil {
				return nil, false, fmt.Errorf("open output %q: %w", out.String(), err)
			}
			return out, false, nil
		}
	}

	out, err := d.drv.OpenVirtualOut(name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create virtual output %q: %w", name, err)
	}
	return out, true, nil
}

// Match picks a port index by substring. An empty pattern, or one matching
// nothing, falls back to the first port.
func Match(names []string, pattern string) (int, bool) {
	if len(names) == 0 {
		return -1, false
	}
	if pattern != "" {
		for i, n := range names {
			if ContainsFold(n, pattern) {
				return i, true
			}
		}
	}
	return 0, true
}

// ContainsFold reports whether sub is within s, ignoring case
func ContainsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
