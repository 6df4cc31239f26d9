// Package config loads translator mappings and banks from YAML files
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/james-see/launchkey2daw/pkg/translator"
)

// Default port names
const (
	DefaultInput  = "Launchkey"
	DefaultOutput = "MK3 to Cubase"
)

// ErrInvalid is returned for configuration that fails validation
var ErrInvalid = errors.New("invalid configuration")

// KeySpec identifies a MIDI message. Channels are 0-based.
type KeySpec struct {
	Kind    string `yaml:"kind" json:"kind" validate:"required,oneof=cc note_on note_off"`
	Channel int    `yaml:"channel" json:"channel" validate:"gte=0,lte=15"`
	Number  int    `yaml:"number" json:"number" validate:"gte=0,lte=127"`
}

// TransformSpec selects and parameterizes a value transform
type TransformSpec struct {
	Type  string  `yaml:"type,omitempty" json:"type,omitempty" validate:"omitempty,oneof=identity constant invert curve range"`
	Value int     `yaml:"value,omitempty" json:"value,omitempty" validate:"excluded_unless=Type constant,gte=0,lte=127"`
	Gamma float64 `yaml:"gamma,omitempty" json:"gamma,omitempty" validate:"required_if=Type curve,excluded_unless=Type curve,gte=0"`
	Min   int     `yaml:"min,omitempty" json:"min,omitempty" validate:"excluded_unless=Type range,gte=0,lte=127"`
	Max   int     `yaml:"max,omitempty" json:"max,omitempty" validate:"excluded_unless=Type range,gte=0,lte=127"`
}

// MappingSpec binds an input message to an output message
type MappingSpec struct {
	In        KeySpec       `yaml:"in" json:"in"`
	Out       KeySpec       `yaml:"out" json:"out"`
	Transform TransformSpec `yaml:"transform,omitempty" json:"transform,omitempty"`
	Bank      string        `yaml:"bank,omitempty" json:"bank,omitempty" validate:"omitempty,oneof=fader device"`
	Comment   string        `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// BankSpec describes one bank
type BankSpec struct {
	ID           int    `yaml:"id" json:"id" validate:"gte=0"`
	Name         string `yaml:"name" json:"name" validate:"required"`
	FaderOffset  int    `yaml:"fader_offset" json:"fader_offset"`
	DeviceOffset int    `yaml:"device_offset" json:"device_offset"`
}

// BankSelectSpec binds a control to a bank change
type BankSelectSpec struct {
	In     KeySpec `yaml:"in" json:"in"`
	Action string  `yaml:"action" json:"action" validate:"required,oneof=next prev select"`
	Bank   int     `yaml:"bank,omitempty" json:"bank,omitempty" validate:"gte=0"`
}

// File is the on-disk configuration
type File struct {
	Input        string           `yaml:"input,omitempty" json:"input,omitempty"`
	Output       string           `yaml:"output,omitempty" json:"output,omitempty"`
	Unclassified string           `yaml:"unclassified,omitempty" json:"unclassified,omitempty" validate:"omitempty,oneof=passthrough drop"`
	Banks        []BankSpec       `yaml:"banks,omitempty" json:"banks,omitempty" validate:"dive"`
	Mappings     []MappingSpec    `yaml:"mappings" json:"mappings" validate:"dive"`
	BankSelect   []BankSelectSpec `yaml:"bank_select,omitempty" json:"bank_select,omitempty" validate:"dive"`
}

var validate = validator.New()

// Load reads and validates a configuration file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes YAML (or JSON, which is valid YAML) and validates the result
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field ranges and builds the engine tables once so that
// duplicate keys and bad bank references are caught at load time
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	if _, err := f.Engine(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// MappingEntries validates mappings received outside a file, such as a
// live reload over the API
func MappingEntries(specs []MappingSpec) ([]translator.Entry, error) {
	f := File{Mappings: specs}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	entries, err := f.Entries()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return entries, nil
}

// Marshal encodes the configuration as YAML
func (f *File) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path
func (f *File) Save(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "File.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s=%v fails %s=%s", field, fe.Value(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s=%v fails %s", field, fe.Value(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
