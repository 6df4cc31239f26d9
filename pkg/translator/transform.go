package translator

import (
	"fmt"
	"math"
	"strings"
)

// TransformKind tags the variant held by a Transform
type TransformKind uint8

const (
	TransformIdentity TransformKind = iota
	TransformConstant
	TransformInvert
	TransformCurve
	TransformRange
	TransformCustom
)

func (k TransformKind) String() string {
	switch k {
	case TransformIdentity:
		return "identity"
	case TransformConstant:
		return "constant"
	case TransformInvert:
		return "invert"
	case TransformCurve:
		return "curve"
	case TransformRange:
		return "range"
	case TransformCustom:
		return "custom"
	default:
		return fmt.Sprintf("transform(%d)", uint8(k))
	}
}

// ParseTransformKind parses a transform type name from configuration
func ParseTransformKind(s string) (TransformKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity":
		return TransformIdentity, nil
	case "constant":
		return TransformConstant, nil
	case "invert":
		return TransformInvert, nil
	case "curve":
		return TransformCurve, nil
	case "range":
		return TransformRange, nil
	default:
		return TransformIdentity, fmt.Errorf("%w: unknown type %q", ErrInvalidTransform, s)
	}
}

// Transform maps an input value (0-127) to an output value (0-127).
// The zero value is the identity transform.
type Transform struct {
	Kind  TransformKind
	Value uint8   // constant output
	Gamma float64 // curve exponent
	Min   uint8   // range lower bound
	Max   uint8   // range upper bound

	name string
	fn   func(uint8) (uint8, error)
}

// Identity passes the value through unchanged
func Identity() Transform {
	return Transform{Kind: TransformIdentity}
}

// Constant always produces v
func Constant(v uint8) Transform {
	return Transform{Kind: TransformConstant, Value: v}
}

// Invert produces 127 - v
func Invert() Transform {
	return Transform{Kind: TransformInvert}
}

// Curve applies 127 * (v/127)^gamma, rounded to the nearest integer
func Curve(gamma float64) Transform {
	return Transform{Kind: TransformCurve, Gamma: gamma}
}

// Range scales 0-127 linearly onto min-max
func Range(min, max uint8) Transform {
	return Transform{Kind: TransformRange, Min: min, Max: max}
}

// Custom wraps an arbitrary function. fn must be deterministic.
func Custom(name string, fn func(uint8) (uint8, error)) Transform {
	return Transform{Kind: TransformCustom, name: name, fn: fn}
}

// Validate checks the transform parameters
func (t Transform) Validate() error {
	switch t.Kind {
	case TransformIdentity, TransformInvert:
		return nil
	case TransformConstant:
		if t.Value > 127 {
			return fmt.Errorf("%w: constant %d (must be 0-127)", ErrInvalidTransform, t.Value)
		}
	case TransformCurve:
		if !(t.Gamma > 0) || math.IsInf(t.Gamma, 0) {
			return fmt.Errorf("%w: curve gamma %v (must be > 0)", ErrInvalidTransform, t.Gamma)
		}
	case TransformRange:
		if t.Min > 127 || t.Max > 127 {
			return fmt.Errorf("%w: range %d-%d (must be 0-127)", ErrInvalidTransform, t.Min, t.Max)
		}
	case TransformCustom:
		if t.fn == nil {
			return fmt.Errorf("%w: custom transform %q has no function", ErrInvalidTransform, t.name)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidTransform, t.Kind)
	}
	return nil
}

// Apply runs the transform. A custom function that panics or returns a value
// above 127 yields an error wrapping ErrTransform.
func (t Transform) Apply(v uint8) (out uint8, err error) {
	v &= DataMask

	switch t.Kind {
	case TransformIdentity:
		return v, nil
	case TransformConstant:
		out = t.Value
	case TransformInvert:
		return 127 - v, nil
	case TransformCurve:
		out = uint8(math.Round(127 * math.Pow(float64(v)/127, t.Gamma)))
	case TransformRange:
		span := int(t.Max) - int(t.Min)
		out = uint8(int(t.Min) + int(math.Round(float64(span)*float64(v)/127)))
	case TransformCustom:
		if t.fn == nil {
			return 0, fmt.Errorf("%w: custom transform %q has no function", ErrTransform, t.name)
		}
		defer func() {
			if r := recover(); r != nil {
				out, err = 0, fmt.Errorf("%w: %s panicked: %v", ErrTransform, t, r)
			}
		}()
		out, err = t.fn(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrTransform, t, err)
		}
	default:
		return 0, fmt.Errorf("%w: unknown kind %s", ErrTransform, t.Kind)
	}

	if out > 127 {
		return 0, fmt.Errorf("%w: %s produced %d (out of range)", ErrTransform, t, out)
	}
	return out, nil
}

func (t Transform) String() string {
	switch t.Kind {
	case TransformConstant:
		return fmt.Sprintf("constant(%d)", t.Value)
	case TransformCurve:
		return fmt.Sprintf("curve(%g)", t.Gamma)
	case TransformRange:
		return fmt.Sprintf("range(%d-%d)", t.Min, t.Max)
	case TransformCustom:
		return fmt.Sprintf("custom(%s)", t.name)
	default:
		return t.Kind.String()
	}
}
