package translator

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Bank remaps physical controls onto a different set of targets
type Bank struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FaderOffset  int    `json:"fader_offset"`
	DeviceOffset int    `json:"device_offset"`
}

// BankState tracks the active bank. The bank set is fixed at construction;
// only the current id changes, and it is safe to switch from any goroutine.
type BankState struct {
	banks   map[int]Bank
	ids     []int
	current atomic.Int64
}

// NewBankState builds the state machine. The initial bank is id 0 when
// configured, otherwise the lowest id. An empty list yields a single
// zero-offset bank 0.
func NewBankState(banks []Bank) (*BankState, error) {
	if len(banks) == 0 {
		banks = []Bank{{ID: 0, Name: "Default"}}
	}

	s := &BankState{banks: make(map[int]Bank, len(banks))}
	for _, b := range banks {
		if b.ID < 0 {
			return nil, fmt.Errorf("bank %q: id %d must not be negative", b.Name, b.ID)
		}
		if _, exists := s.banks[b.ID]; exists {
			return nil, fmt.Errorf("bank %q: duplicate id %d", b.Name, b.ID)
		}
		s.banks[b.ID] = b
		s.ids = append(s.ids, b.ID)
	}
	sort.Ints(s.ids)
	s.current.Store(int64(s.ids[0]))
	return s, nil
}

// Current returns the active bank
func (s *BankState) Current() Bank {
	return s.banks[int(s.current.Load())]
}

// Select makes id the active bank. Unknown ids leave the state unchanged.
func (s *BankState) Select(id int) (Bank, error) {
	b, ok := s.banks[id]
	if !ok {
		return s.Current(), fmt.Errorf("%w: %d", ErrUnknownBank, id)
	}
	s.current.Store(int64(id))
	return b, nil
}

// Next moves to the next higher configured id, staying on the last one
func (s *BankState) Next() Bank {
	return s.step(1)
}

// Prev moves to the next lower configured id, staying on the first one
func (s *BankState) Prev() Bank {
	return s.step(-1)
}

func (s *BankState) step(dir int) Bank {
	cur := int(s.current.Load())
	i := sort.SearchInts(s.ids, cur) + dir
	if i < 0 || i >= len(s.ids) {
		return s.banks[cur]
	}
	s.current.Store(int64(s.ids[i]))
	return s.banks[s.ids[i]]
}

// Banks returns the configured banks ordered by id
func (s *BankState) Banks() []Bank {
	out := make([]Bank, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.banks[id])
	}
	return out
}

// Resolve returns the output channel and number of r under the active bank.
// Offsets saturate at the range boundaries instead of wrapping.
func (s *BankState) Resolve(r Rule) (channel, number uint8) {
	channel, number = r.Channel, r.Number
	if !r.BankSensitive {
		return channel, number
	}

	b := s.Current()
	switch r.Class {
	case ClassFader:
		channel = clamp(int(r.Channel)+b.FaderOffset, 15)
	case ClassDevice:
		number = clamp(int(r.Number)+b.DeviceOffset, 127)
	}
	return channel, number
}

func clamp(v, max int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > max:
		return uint8(max)
	default:
		return uint8(v)
	}
}
