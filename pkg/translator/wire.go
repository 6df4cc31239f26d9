package translator

import (
	"encoding/hex"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
)

// Encode builds the 3-byte wire message for kind on channel.
// Channel is masked to 4 bits, number and value to 7 bits.
func Encode(kind Kind, channel, number, value uint8) midi.Message {
	channel &= ChannelMask
	number &= DataMask
	value &= DataMask

	switch kind {
	case ControlChange:
		return midi.ControlChange(channel, number, value)
	case NoteOn:
		return midi.NoteOn(channel, number, value)
	case NoteOff:
		return midi.NoteOffVelocity(channel, number, value)
	default:
		return nil
	}
}

var hexCleaner = strings.NewReplacer(" ", "", ",", "", "0x", "", "0X", "")

// ParseHex decodes bytes written as "B0 15 64", "b01564" or "0xB0, 0x15, 0x64"
func ParseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(hexCleaner.Replace(strings.TrimSpace(s)))
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytes %q: %w", s, err)
	}
	return b, nil
}

// FormatHex renders bytes as "B0 07 64"
func FormatHex(b []byte) string {
	return fmt.Sprintf("% X", b)
}
