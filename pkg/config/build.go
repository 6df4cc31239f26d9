package config

import (
	"fmt"

	"github.com/james-see/launchkey2daw/pkg/translator"
)

// Key converts the file form to a translator key
func (k KeySpec) Key() (translator.Key, error) {
	kind, err := translator.ParseKind(k.Kind)
	if err != nil {
		return translator.Key{}, err
	}
	if k.Channel < 0 || k.Channel > 15 || k.Number < 0 || k.Number > 127 {
		return translator.Key{}, fmt.Errorf("%w: channel %d number %d", translator.ErrInvalidKey, k.Channel, k.Number)
	}
	return translator.Key{Kind: kind, Channel: uint8(k.Channel), Number: uint8(k.Number)}, nil
}

// Transform builds the translator transform it describes
func (t TransformSpec) Transform() (translator.Transform, error) {
	kind, err := translator.ParseTransformKind(t.Type)
	if err != nil {
		return translator.Transform{}, err
	}
	if t.Value < 0 || t.Value > 127 || t.Min < 0 || t.Min > 127 || t.Max < 0 || t.Max > 127 {
		return translator.Transform{}, fmt.Errorf("%w: parameters out of range", translator.ErrInvalidTransform)
	}

	var tr translator.Transform
	switch kind {
	case translator.TransformConstant:
		tr = translator.Constant(uint8(t.Value))
	case translator.TransformInvert:
		tr = translator.Invert()
	case translator.TransformCurve:
		tr = translator.Curve(t.Gamma)
	case translator.TransformRange:
		tr = translator.Range(uint8(t.Min), uint8(t.Max))
	default:
		tr = translator.Identity()
	}
	return tr, tr.Validate()
}

// Entry converts the mapping to a translator entry
func (m MappingSpec) Entry() (translator.Entry, error) {
	in, err := m.In.Key()
	if err != nil {
		return translator.Entry{}, fmt.Errorf("in: %w", err)
	}
	out, err := m.Out.Key()
	if err != nil {
		return translator.Entry{}, fmt.Errorf("out: %w", err)
	}
	tr, err := m.Transform.Transform()
	if err != nil {
		return translator.Entry{}, err
	}
	class, err := translator.ParseClass(m.Bank)
	if err != nil {
		return translator.Entry{}, err
	}

	return translator.Entry{
		Key: in,
		Rule: translator.Rule{
			Kind:          out.Kind,
			Channel:       out.Channel,
			Number:        out.Number,
			Transform:     tr,
			BankSensitive: class != translator.ClassNone,
			Class:         class,
		},
	}, nil
}

// Entries converts all mappings
func (f *File) Entries() ([]translator.Entry, error) {
	entries := make([]translator.Entry, 0, len(f.Mappings))
	for i, m := range f.Mappings {
		e, err := m.Entry()
		if err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// BankList converts the bank specs
func (f *File) BankList() []translator.Bank {
	banks := make([]translator.Bank, 0, len(f.Banks))
	for _, b := range f.Banks {
		banks = append(banks, translator.Bank{
			ID:           b.ID,
			Name:         b.Name,
			FaderOffset:  b.FaderOffset,
			DeviceOffset: b.DeviceOffset,
		})
	}
	return banks
}

// Switches converts the bank-select controls
func (f *File) Switches() ([]translator.BankSwitch, error) {
	switches := make([]translator.BankSwitch, 0, len(f.BankSelect))
	for i, s := range f.BankSelect {
		key, err := s.In.Key()
		if err != nil {
			return nil, fmt.Errorf("bank select %d: %w", i+1, err)
		}
		sw := translator.BankSwitch{Key: key, Bank: s.Bank}
		switch s.Action {
		case "next":
			sw.Op = translator.BankNext
		case "prev":
			sw.Op = translator.BankPrev
		case "select":
			sw.Op = translator.BankSelect
		default:
			return nil, fmt.Errorf("bank select %d: unknown action %q", i+1, s.Action)
		}
		switches = append(switches, sw)
	}
	return switches, nil
}

// Engine builds a translator engine from the configuration
func (f *File) Engine() (*translator.Engine, error) {
	entries, err := f.Entries()
	if err != nil {
		return nil, err
	}
	switches, err := f.Switches()
	if err != nil {
		return nil, err
	}
	policy, err := translator.ParsePolicy(f.Unclassified)
	if err != nil {
		return nil, err
	}
	return translator.New(f.BankList(),
		translator.WithMapping(entries),
		translator.WithBankSwitches(switches),
		translator.WithUnclassified(policy),
	)
}

// FromTable converts installed entries back to mapping specs, e.g. for dumping
// a live table. Custom transforms have no file form and are listed with type
// "custom", which validation rejects, so a dumped table cannot silently drop them.
func FromTable(entries []translator.Entry) []MappingSpec {
	specs := make([]MappingSpec, 0, len(entries))
	for _, e := range entries {
		r := e.Rule
		spec := MappingSpec{
			In:  KeySpec{Kind: e.Key.Kind.String(), Channel: int(e.Key.Channel), Number: int(e.Key.Number)},
			Out: KeySpec{Kind: r.Kind.String(), Channel: int(r.Channel), Number: int(r.Number)},
		}
		switch r.Transform.Kind {
		case translator.TransformConstant:
			spec.Transform = TransformSpec{Type: "constant", Value: int(r.Transform.Value)}
		case translator.TransformInvert:
			spec.Transform = TransformSpec{Type: "invert"}
		case translator.TransformCurve:
			spec.Transform = TransformSpec{Type: "curve", Gamma: r.Transform.Gamma}
		case translator.TransformRange:
			spec.Transform = TransformSpec{Type: "range", Min: int(r.Transform.Min), Max: int(r.Transform.Max)}
		case translator.TransformCustom:
			spec.Transform = TransformSpec{Type: "custom"}
		}
		if r.BankSensitive {
			spec.Bank = r.Class.String()
		}
		specs = append(specs, spec)
	}
	return specs
}
