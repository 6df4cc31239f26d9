package config

import "fmt"

// Default returns the built-in Launchkey MK3 mapping. The input numbers are
// examples; run the probe command and adjust them to what the device reports.
func Default() *File {
	f := &File{
		Input:        DefaultInput,
		Output:       DefaultOutput,
		Unclassified: "passthrough",
		Banks: []BankSpec{
			{ID: 0, Name: "Tracks 1-8", FaderOffset: 0, DeviceOffset: 0},
			{ID: 1, Name: "Tracks 9-16", FaderOffset: 8, DeviceOffset: 8},
		},
	}

	// Faders 1-8 (CC 21-28) -> CC 7 volume on channels 1-8
	for i := 0; i < 8; i++ {
		f.Mappings = append(f.Mappings, MappingSpec{
			In:      KeySpec{Kind: "cc", Channel: 0, Number: 21 + i},
			Out:     KeySpec{Kind: "cc", Channel: i, Number: 7},
			Bank:    "fader",
			Comment: fmt.Sprintf("Fader %d volume", i+1),
		})
	}

	// Pans (CC 41-42) -> CC 10 on channels 1-2
	for i := 0; i < 2; i++ {
		f.Mappings = append(f.Mappings, MappingSpec{
			In:      KeySpec{Kind: "cc", Channel: 0, Number: 41 + i},
			Out:     KeySpec{Kind: "cc", Channel: i, Number: 10},
			Comment: fmt.Sprintf("Pan %d", i+1),
		})
	}

	// Knobs 1-8 (CC 11-18) -> device parameters CC 20-27
	for i := 0; i < 8; i++ {
		f.Mappings = append(f.Mappings, MappingSpec{
			In:      KeySpec{Kind: "cc", Channel: 0, Number: 11 + i},
			Out:     KeySpec{Kind: "cc", Channel: 0, Number: 20 + i},
			Bank:    "device",
			Comment: fmt.Sprintf("Knob %d device parameter", i+1),
		})
	}

	// Pad note 36 on the drum channel stays a note
	f.Mappings = append(f.Mappings,
		MappingSpec{
			In:  KeySpec{Kind: "note_on", Channel: 9, Number: 36},
			Out: KeySpec{Kind: "note_on", Channel: 9, Number: 36},
		},
		MappingSpec{
			In:  KeySpec{Kind: "note_off", Channel: 9, Number: 36},
			Out: KeySpec{Kind: "note_off", Channel: 9, Number: 36},
		},
	)

	// Transport pads -> fixed CC buttons for Generic Remote learn
	for i, name := range []string{"Play", "Stop", "Record"} {
		f.Mappings = append(f.Mappings, MappingSpec{
			In:        KeySpec{Kind: "note_on", Channel: 9, Number: 48 + i},
			Out:       KeySpec{Kind: "cc", Channel: 0, Number: 100 + i},
			Transform: TransformSpec{Type: "constant", Value: 127},
			Comment:   name,
		})
	}

	return f
}
