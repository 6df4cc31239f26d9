package translator

import (
	"errors"
	"testing"
)

func TestIdentityPreservesValue(t *testing.T) {
	tr := Identity()
	for v := 0; v < 128; v++ {
		got, err := tr.Apply(uint8(v))
		if err != nil {
			t.Fatalf("Apply(%d) error = %v", v, err)
		}
		if got != uint8(v) {
			t.Errorf("Apply(%d) = %d, want %d", v, got, v)
		}
	}
}

func TestZeroTransformIsIdentity(t *testing.T) {
	var tr Transform
	got, err := tr.Apply(42)
	if err != nil || got != 42 {
		t.Errorf("zero Transform Apply(42) = %d, %v, want 42", got, err)
	}
}

func TestTransformApply(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		in   uint8
		want uint8
	}{
		{"constant", Constant(127), 1, 127},
		{"constant ignores input", Constant(64), 127, 64},
		{"invert low", Invert(), 0, 127},
		{"invert high", Invert(), 127, 0},
		{"invert mid", Invert(), 27, 100},
		{"curve linear", Curve(1), 100, 100},
		{"curve square mid", Curve(2), 64, 32},
		{"curve top", Curve(3), 127, 127},
		{"curve bottom", Curve(0.5), 0, 0},
		{"range bottom", Range(20, 100), 0, 20},
		{"range top", Range(20, 100), 127, 100},
		{"range reversed", Range(127, 0), 0, 127},
		{"custom", Custom("double", func(v uint8) (uint8, error) { return v / 2, nil }), 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.tr.Apply(tt.in)
			if err != nil {
				t.Fatalf("Apply(%d) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("%s.Apply(%d) = %d, want %d", tt.tr, tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformFailures(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
	}{
		{"out of range", Custom("big", func(v uint8) (uint8, error) { return 200, nil })},
		{"error", Custom("fail", func(v uint8) (uint8, error) { return 0, errors.New("boom") })},
		{"panic", Custom("panic", func(v uint8) (uint8, error) { panic("boom") })},
		{"nil function", Custom("nil", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tr.Apply(10)
			if !errors.Is(err, ErrTransform) {
				t.Errorf("Apply() error = %v, want ErrTransform", err)
			}
		})
	}
}

func TestTransformValidate(t *testing.T) {
	tests := []struct {
		name    string
		tr      Transform
		wantErr bool
	}{
		{"identity", Identity(), false},
		{"constant", Constant(127), false},
		{"constant too high", Constant(128), true},
		{"curve", Curve(2), false},
		{"curve zero gamma", Curve(0), true},
		{"curve negative gamma", Curve(-1), true},
		{"range", Range(0, 127), false},
		{"range too high", Range(0, 200), true},
		{"custom without function", Custom("x", nil), true},
		{"unknown kind", Transform{Kind: TransformKind(42)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tr.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransformDeterministic(t *testing.T) {
	for _, tr := range []Transform{Identity(), Constant(5), Invert(), Curve(1.7), Range(10, 90)} {
		for v := 0; v < 128; v++ {
			a, _ := tr.Apply(uint8(v))
			b, _ := tr.Apply(uint8(v))
			if a != b {
				t.Fatalf("%s.Apply(%d) not deterministic: %d != %d", tr, v, a, b)
			}
			if a > 127 {
				t.Fatalf("%s.Apply(%d) = %d, out of range", tr, v, a)
			}
		}
	}
}
