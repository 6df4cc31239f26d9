package translator

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

func cc(ch, num uint8) Key     { return Key{Kind: ControlChange, Channel: ch, Number: num} }
func noteOn(ch, num uint8) Key { return Key{Kind: NoteOn, Channel: ch, Number: num} }

func newTestEngine(t *testing.T, entries []Entry, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithMapping(entries)}, opts...)
	e, err := New(testBanks, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestEngineScenarios(t *testing.T) {
	e := newTestEngine(t, []Entry{
		{Key: cc(0, 21), Rule: Rule{Kind: ControlChange, Channel: 0, Number: 7}},
		{Key: noteOn(0, 48), Rule: Rule{Kind: ControlChange, Channel: 0, Number: 100, Transform: Constant(127)}},
		{Key: Key{Kind: NoteOff, Channel: 0, Number: 36}, Rule: Rule{Kind: NoteOff, Channel: 0, Number: 36}},
	})

	tests := []struct {
		name     string
		in       []byte
		wantType ActionType
		want     []byte
	}{
		{"fader to volume", []byte{0xB0, 0x15, 0x64}, ActionEmit, []byte{0xB0, 0x07, 0x64}},
		{"transport constant", []byte{0x90, 0x30, 0x7F}, ActionEmit, []byte{0xB0, 0x64, 0x7F}},
		{"transport constant soft hit", []byte{0x90, 0x30, 0x05}, ActionEmit, []byte{0xB0, 0x64, 0x7F}},
		{"velocity zero note off", []byte{0x90, 0x24, 0x00}, ActionEmit, []byte{0x80, 0x24, 0x00}},
		{"unmapped cc", []byte{0xB2, 0x05, 0x40}, ActionPassthrough, []byte{0xB2, 0x05, 0x40}},
		{"pitch bend", []byte{0xE0, 0x00, 0x40}, ActionPassthrough, []byte{0xE0, 0x00, 0x40}},
		{"short message", []byte{0xC0, 0x05}, ActionPassthrough, []byte{0xC0, 0x05}},
		{"empty", []byte{}, ActionDrop, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := e.Handle(tt.in)
			if err != nil {
				t.Fatalf("Handle(% X) error = %v", tt.in, err)
			}
			if a.Type != tt.wantType {
				t.Fatalf("Handle(% X) = %s, want %s", tt.in, a.Type, tt.wantType)
			}
			if !bytes.Equal(a.Bytes(), tt.want) {
				t.Errorf("Handle(% X) bytes = % X, want % X", tt.in, a.Bytes(), tt.want)
			}
		})
	}
}

func TestEnginePassthroughIsACopy(t *testing.T) {
	e := newTestEngine(t, nil)
	in := []byte{0xB5, 0x10, 0x20}
	a, _ := e.Handle(in)
	in[2] = 0x7F
	if !bytes.Equal(a.Raw, []byte{0xB5, 0x10, 0x20}) {
		t.Errorf("passthrough bytes changed with input: % X", a.Raw)
	}
}

func TestEngineMissPassthroughAllKeys(t *testing.T) {
	e := newTestEngine(t, []Entry{{Key: cc(0, 21), Rule: Rule{Kind: ControlChange, Number: 7}}})
	for _, status := range []byte{0x80, 0x90, 0xB0, 0x8F, 0x9F, 0xBF} {
		for num := 0; num < 128; num += 5 {
			in := []byte{status, byte(num), 0x33}
			if status == 0xB0 && num == 21 {
				continue
			}
			a, err := e.Handle(in)
			if err != nil || a.Type != ActionPassthrough || !bytes.Equal(a.Bytes(), in) {
				t.Fatalf("Handle(% X) = %v %v, want identical passthrough", in, a, err)
			}
		}
	}
}

func TestEngineUnclassifiedDrop(t *testing.T) {
	e := newTestEngine(t, nil, WithUnclassified(PolicyDrop))
	a, err := e.Handle([]byte{0xE0, 0x00, 0x40})
	if err != nil || a.Type != ActionDrop {
		t.Errorf("Handle(pitch bend) = %v %v, want drop", a, err)
	}
	a, _ = e.Handle([]byte{0xB0, 0x01, 0x02})
	if a.Type != ActionPassthrough {
		t.Errorf("unmapped cc with drop policy = %s, want passthrough", a.Type)
	}
}

func TestEngineTransformFailureIsNotFatal(t *testing.T) {
	bad := Custom("bad", func(v uint8) (uint8, error) { return 0, errors.New("broken") })
	e := newTestEngine(t, []Entry{
		{Key: cc(0, 1), Rule: Rule{Kind: ControlChange, Number: 1, Transform: bad}},
		{Key: cc(0, 2), Rule: Rule{Kind: ControlChange, Number: 2}},
	})

	a, err := e.Handle([]byte{0xB0, 0x01, 0x10})
	if !errors.Is(err, ErrTransform) {
		t.Fatalf("Handle() error = %v, want ErrTransform", err)
	}
	if a.Type != ActionDrop {
		t.Errorf("failed transform action = %s, want drop", a.Type)
	}

	a, err = e.Handle([]byte{0xB0, 0x02, 0x10})
	if err != nil || a.Type != ActionEmit {
		t.Errorf("next event = %v %v, want emit", a, err)
	}

	st := e.Stats()
	if st.Errors != 1 || st.Emitted != 1 || st.Received != 2 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestEngineBankOffsets(t *testing.T) {
	e := newTestEngine(t, []Entry{
		{Key: cc(0, 21), Rule: Rule{Kind: ControlChange, Channel: 0, Number: 7, BankSensitive: true, Class: ClassFader}},
		{Key: cc(0, 28), Rule: Rule{Kind: ControlChange, Channel: 7, Number: 7, BankSensitive: true, Class: ClassFader}},
		{Key: cc(0, 11), Rule: Rule{Kind: ControlChange, Channel: 0, Number: 20, BankSensitive: true, Class: ClassDevice}},
		{Key: cc(0, 41), Rule: Rule{Kind: ControlChange, Channel: 0, Number: 10}},
	})

	if _, err := e.SelectBank(1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   []byte
		want []byte
	}{
		{[]byte{0xB0, 21, 100}, []byte{0xB8, 7, 100}},
		{[]byte{0xB0, 28, 100}, []byte{0xBF, 7, 100}},
		{[]byte{0xB0, 11, 64}, []byte{0xB0, 28, 64}},
		{[]byte{0xB0, 41, 64}, []byte{0xB0, 10, 64}},
	}
	for _, tt := range tests {
		a, err := e.Handle(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.Bytes(), tt.want) {
			t.Errorf("bank 1 Handle(% X) = % X, want % X", tt.in, a.Bytes(), tt.want)
		}
	}
}

func TestEngineBankSwitches(t *testing.T) {
	e := newTestEngine(t,
		[]Entry{{Key: cc(0, 21), Rule: Rule{Kind: ControlChange, Number: 7, BankSensitive: true, Class: ClassFader}}},
		WithBankSwitches([]BankSwitch{
			{Key: cc(0, 105), Op: BankNext},
			{Key: cc(0, 104), Op: BankPrev},
			{Key: noteOn(9, 40), Op: BankSelect, Bank: 1},
		}),
	)

	press := func(raw ...byte) {
		t.Helper()
		a, err := e.Handle(raw)
		if err != nil || a.Type != ActionDrop {
			t.Fatalf("Handle(% X) = %v %v, want consumed", raw, a, err)
		}
	}

	press(0xB0, 105, 127)
	if e.Banks().Current().ID != 1 {
		t.Fatalf("next did not switch to bank 1")
	}
	press(0xB0, 105, 0)
	if e.Banks().Current().ID != 1 {
		t.Fatalf("release changed the bank")
	}
	a, _ := e.Handle([]byte{0xB0, 21, 50})
	if !bytes.Equal(a.Bytes(), []byte{0xB8, 7, 50}) {
		t.Errorf("after switch Handle() = % X", a.Bytes())
	}
	press(0xB0, 104, 127)
	if e.Banks().Current().ID != 0 {
		t.Fatalf("prev did not switch to bank 0")
	}
	press(0x99, 40, 90)
	if e.Banks().Current().ID != 1 {
		t.Fatalf("select did not switch to bank 1")
	}
	// both note off forms release a note switch without leaking to the output
	press(0x89, 40, 0)
	press(0x99, 40, 0)
	if e.Banks().Current().ID != 1 {
		t.Fatalf("note release changed the bank")
	}
	if got := e.Stats().BankChanges; got != 3 {
		t.Errorf("BankChanges = %d, want 3", got)
	}
}

func TestEngineRejectsBadSwitch(t *testing.T) {
	_, err := New(testBanks, WithBankSwitches([]BankSwitch{{Key: cc(0, 1), Op: BankSelect, Bank: 9}}))
	if !errors.Is(err, ErrUnknownBank) {
		t.Errorf("New() error = %v, want ErrUnknownBank", err)
	}
	_, err = New(testBanks, WithBankSwitches([]BankSwitch{
		{Key: cc(0, 1), Op: BankNext},
		{Key: cc(0, 1), Op: BankPrev},
	}))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("New() error = %v, want ErrDuplicateKey", err)
	}
}

func TestEngineInstallAtomic(t *testing.T) {
	e := newTestEngine(t, []Entry{{Key: cc(0, 21), Rule: Rule{Kind: ControlChange, Number: 7}}})

	err := e.Install([]Entry{
		{Key: cc(0, 22), Rule: Rule{Kind: ControlChange, Number: 8}},
		{Key: cc(0, 22), Rule: Rule{Kind: ControlChange, Number: 9}},
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("Install() error = %v, want ErrDuplicateKey", err)
	}
	if _, ok := e.Table().Lookup(cc(0, 21)); !ok || e.Table().Len() != 1 {
		t.Fatal("failed Install replaced the active table")
	}

	err = e.Install([]Entry{{Key: cc(0, 22), Rule: Rule{Kind: ControlChange, Channel: 16}}})
	if !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("Install() error = %v, want ErrInvalidRule", err)
	}

	if err := e.Install([]Entry{{Key: cc(0, 22), Rule: Rule{Kind: ControlChange, Number: 8}}}); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Table().Lookup(cc(0, 21)); ok {
		t.Error("old entry still present after Install")
	}
}

func TestEngineConcurrentReload(t *testing.T) {
	a := []Entry{{Key: cc(0, 1), Rule: Rule{Kind: ControlChange, Number: 10}}, {Key: cc(0, 2), Rule: Rule{Kind: ControlChange, Number: 10}}}
	b := []Entry{{Key: cc(0, 1), Rule: Rule{Kind: ControlChange, Number: 20}}, {Key: cc(0, 2), Rule: Rule{Kind: ControlChange, Number: 20}}}
	e := newTestEngine(t, a)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				_ = e.Install(b)
			} else {
				_ = e.Install(a)
			}
			_, _ = e.SelectBank(i % 2)
		}
	}()

	for i := 0; i < 200; i++ {
		t1 := e.Table()
		r1, _ := t1.Lookup(cc(0, 1))
		r2, _ := t1.Lookup(cc(0, 2))
		if r1.Number != r2.Number {
			t.Fatalf("observed a half-installed table: %d vs %d", r1.Number, r2.Number)
		}
		if _, err := e.Handle([]byte{0xB0, 0x01, 0x01}); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
}

func TestNewTableRejectsBankClassless(t *testing.T) {
	_, err := NewTable([]Entry{{Key: cc(0, 1), Rule: Rule{Kind: ControlChange, BankSensitive: true}}})
	if !errors.Is(err, ErrInvalidRule) {
		t.Errorf("NewTable() error = %v, want ErrInvalidRule", err)
	}
}

func TestTableEntriesSorted(t *testing.T) {
	table, err := NewTable([]Entry{
		{Key: noteOn(9, 48), Rule: Rule{Kind: ControlChange, Number: 100}},
		{Key: cc(0, 22), Rule: Rule{Kind: ControlChange, Number: 7}},
		{Key: cc(0, 21), Rule: Rule{Kind: ControlChange, Number: 7}},
	})
	if err != nil {
		t.Fatal(err)
	}
	entries := table.Entries()
	if entries[0].Key != cc(0, 21) || entries[1].Key != cc(0, 22) || entries[2].Key != noteOn(9, 48) {
		t.Errorf("Entries() order = %v", entries)
	}
}

func TestEngineExternalBankChanges(t *testing.T) {
	e := newTestEngine(t, nil)

	steps := []struct {
		name string
		do   func() Bank
		want int
	}{
		{"prev at start", e.PrevBank, 0},
		{"next", e.NextBank, 1},
		{"next at end", e.NextBank, 1},
		{"prev", e.PrevBank, 0},
	}
	for _, s := range steps {
		if got := s.do().ID; got != s.want {
			t.Errorf("%s: bank = %d, want %d", s.name, got, s.want)
		}
	}

	if _, err := e.SelectBank(5); !errors.Is(err, ErrUnknownBank) {
		t.Errorf("SelectBank(5) error = %v, want ErrUnknownBank", err)
	}
	if got := e.Stats().BankChanges; got != 2 {
		t.Errorf("BankChanges = %d, want 2", got)
	}
}

func TestEngineNoteOffSwitchReleaseOnlyForBoundNote(t *testing.T) {
	e := newTestEngine(t, nil, WithBankSwitches([]BankSwitch{{Key: noteOn(9, 40), Op: BankNext}}))

	tests := []struct {
		name string
		in   []byte
		want ActionType
	}{
		{"bound release", []byte{0x89, 40, 0}, ActionDrop},
		{"bound velocity zero", []byte{0x99, 40, 0}, ActionDrop},
		{"other note", []byte{0x89, 41, 0}, ActionPassthrough},
		{"other channel", []byte{0x88, 40, 0}, ActionPassthrough},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := e.Handle(tt.in)
			if err != nil || a.Type != tt.want {
				t.Errorf("Handle(% X) = %v %v, want %s", tt.in, a, err, tt.want)
			}
		})
	}
	if got := e.Banks().Current().ID; got != 0 {
		t.Errorf("releases changed the bank to %d", got)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyPassthrough, false},
		{"passthrough", PolicyPassthrough, false},
		{"drop", PolicyDrop, false},
		{"ignore", PolicyPassthrough, true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("ParsePolicy(%q) error = %v, want ErrInvalidPolicy", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %s, %v, want %s", tt.in, got, err, tt.want)
		}
	}
}
