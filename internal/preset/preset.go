// Package preset defines the named audio-enhancement profiles and the
// per-request override mechanism applied on top of them.
package preset

import "errors"

// ErrUnknown marks lookups for preset keys that are not in the catalog.
var ErrUnknown = errors.New("unknown preset")

// Band is one equalizer adjustment at a center frequency.
type Band struct {
	FrequencyHz int `json:"freq"`
	GainDB      int `json:"gain"`
}

// Preset holds the tuning profile for one enhancement mode. Frequencies
// are in Hz, gains in dB, and NoiseReduction is the afftdn strength in
// the 0..1 range.
type Preset struct {
	Key            string  `json:"key"`
	Label          string  `json:"label"`
	Description    string  `json:"description"`
	HighPassHz     int     `json:"highpass"`
	LowPassHz      int     `json:"lowpass"`
	NoiseReduction float64 `json:"noise_reduction"`
	DynamicBoost   int     `json:"dynamic_boost"`
	VoiceEmphasis  int     `json:"voice_emphasis"`
	EQBands        []Band  `json:"eq_bands"`
}

func (p Preset) clone() Preset {
	out := p
	out.EQBands = append([]Band(nil), p.EQBands...)
	return out
}

// Overrides carries optional per-request adjustments. Nil fields leave
// the preset value in place. A non-nil EQBands replaces the preset's
// bands wholesale, so an empty slice clears them.
type Overrides struct {
	HighPassHz     *int     `json:"highpass,omitempty"`
	LowPassHz      *int     `json:"lowpass,omitempty"`
	NoiseReduction *float64 `json:"noise_reduction,omitempty"`
	DynamicBoost   *int     `json:"dynamic_boost,omitempty"`
	VoiceEmphasis  *int     `json:"voice_emphasis,omitempty"`
	EQBands        []Band   `json:"eq_bands,omitempty"`
}

// Apply returns a copy of p with the overrides merged in. The catalog
// entry backing p is never mutated.
func (o Overrides) Apply(p Preset) Preset {
	out := p.clone()
	if o.HighPassHz != nil {
		out.HighPassHz = *o.HighPassHz
	}
	if o.LowPassHz != nil {
		out.LowPassHz = *o.LowPassHz
	}
	if o.NoiseReduction != nil {
		out.NoiseReduction = *o.NoiseReduction
	}
	if o.DynamicBoost != nil {
		out.DynamicBoost = *o.DynamicBoost
	}
	if o.VoiceEmphasis != nil {
		out.VoiceEmphasis = *o.VoiceEmphasis
	}
	if o.EQBands != nil {
		out.EQBands = append([]Band(nil), o.EQBands...)
	}
	return out
}
