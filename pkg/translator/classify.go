package translator

// MIDI status nibbles
const (
	StatusNoteOff       = 0x80
	StatusNoteOn        = 0x90
	StatusControlChange = 0xB0
	StatusMask          = 0xF0
	ChannelMask         = 0x0F
	DataMask            = 0x7F
)

// Classify turns raw message bytes into a key and its value.
// Only 3-byte CC, note on and note off messages are classified; a note on
// with velocity 0 is reported as a note off with value 0.
func Classify(raw []byte) (Key, uint8, bool) {
	if len(raw) < 3 {
		return Key{}, 0, false
	}

	status := raw[0]
	channel := status & ChannelMask
	number := raw[1] & DataMask
	value := raw[2] & DataMask

	switch status & StatusMask {
	case StatusControlChange:
		return Key{Kind: ControlChange, Channel: channel, Number: number}, value, true
	case StatusNoteOn:
		if value == 0 {
			return Key{Kind: NoteOff, Channel: channel, Number: number}, 0, true
		}
		return Key{Kind: NoteOn, Channel: channel, Number: number}, value, true
	case StatusNoteOff:
		return Key{Kind: NoteOff, Channel: channel, Number: number}, value, true
	default:
		return Key{}, 0, false
	}
}
