package preset

import "fmt"

// DefaultKey is used when a request does not name a preset.
const DefaultKey = "whisper"

// catalogOrder fixes the presentation order for listings.
var catalogOrder = []string{
	"whisper",
	"breath",
	"vocal",
	"tv_suppress",
	"clean_whisper",
	"gentle_enhance",
}

var catalog = map[string]Preset{
	"whisper": {
		Key:            "whisper",
		Label:          "Whisper Mode",
		Description:    "Optimized for whispers, minimal white noise (30-3500 Hz)",
		HighPassHz:     30,
		LowPassHz:      3500,
		NoiseReduction: 0.5,
		DynamicBoost:   8,
		VoiceEmphasis:  4,
		EQBands: []Band{
			{FrequencyHz: 100, GainDB: -3},
			{FrequencyHz: 300, GainDB: 2},
			{FrequencyHz: 1000, GainDB: 3},
			{FrequencyHz: 2000, GainDB: 2},
		},
	},
	"breath": {
		Key:            "breath",
		Label:          "Breath Detection",
		Description:    "Optimized for breathing, minimal processing (100-2000 Hz)",
		HighPassHz:     100,
		LowPassHz:      2000,
		NoiseReduction: 0.3,
		DynamicBoost:   12,
		VoiceEmphasis:  2,
		EQBands: []Band{
			{FrequencyHz: 200, GainDB: 2},
			{FrequencyHz: 500, GainDB: 3},
			{FrequencyHz: 1000, GainDB: 2},
		},
	},
	"vocal": {
		Key:            "vocal",
		Label:          "Vocal Isolation",
		Description:    "Optimized for vocal sounds, balanced processing (80-8000 Hz)",
		HighPassHz:     80,
		LowPassHz:      8000,
		NoiseReduction: 0.4,
		DynamicBoost:   6,
		VoiceEmphasis:  5,
		EQBands: []Band{
			{FrequencyHz: 150, GainDB: 1},
			{FrequencyHz: 400, GainDB: 3},
			{FrequencyHz: 1000, GainDB: 4},
			{FrequencyHz: 2000, GainDB: 3},
		},
	},
	"tv_suppress": {
		Key:            "tv_suppress",
		Label:          "TV Suppression",
		Description:    "TV background suppression, minimal artifacts (200-4000 Hz)",
		HighPassHz:     200,
		LowPassHz:      4000,
		NoiseReduction: 0.6,
		DynamicBoost:   10,
		VoiceEmphasis:  6,
		EQBands: []Band{
			{FrequencyHz: 60, GainDB: -8},
			{FrequencyHz: 120, GainDB: -5},
			{FrequencyHz: 500, GainDB: 4},
			{FrequencyHz: 1500, GainDB: 5},
			{FrequencyHz: 3000, GainDB: 3},
		},
	},
	"clean_whisper": {
		Key:            "clean_whisper",
		Label:          "Clean Whisper",
		Description:    "Minimal processing for very clean whisper enhancement",
		HighPassHz:     50,
		LowPassHz:      4000,
		NoiseReduction: 0.2,
		DynamicBoost:   4,
		VoiceEmphasis:  2,
		EQBands: []Band{
			{FrequencyHz: 250, GainDB: 2},
			{FrequencyHz: 500, GainDB: 3},
			{FrequencyHz: 1000, GainDB: 2},
		},
	},
	"gentle_enhance": {
		Key:            "gentle_enhance",
		Label:          "Gentle Enhancement",
		Description:    "Minimal processing for slight audio improvement",
		HighPassHz:     40,
		LowPassHz:      6000,
		NoiseReduction: 0.1,
		DynamicBoost:   2,
		VoiceEmphasis:  1,
		EQBands: []Band{
			{FrequencyHz: 300, GainDB: 1},
			{FrequencyHz: 1000, GainDB: 2},
		},
	},
}

// Get returns the preset registered under key. The returned value is a
// copy, so callers may adjust it freely.
func Get(key string) (Preset, error) {
	p, ok := catalog[key]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknown, key)
	}
	return p.clone(), nil
}

// Keys lists the catalog keys in presentation order.
func Keys() []string {
	return append([]string(nil), catalogOrder...)
}

// All returns every preset in presentation order.
func All() []Preset {
	out := make([]Preset, 0, len(catalogOrder))
	for _, key := range catalogOrder {
		out = append(out, catalog[key].clone())
	}
	return out
}
