// Package filterchain assembles the ordered audio filter stages for a
// preset. Stages are built as structured values so callers can inspect
// names and arguments without parsing filter syntax; the ffmpeg client
// renders them into a filtergraph string.
package filterchain

import (
	"strconv"

	"clarion/internal/preset"
)

// Fixed stage tuning shared by every preset.
const (
	noiseFloorDB    = -20
	noiseWindowType = "w"

	compressorThresholdBaseDB  = -25
	compressorThresholdDivisor = 4
	compressorRatioBase        = 2
	compressorRatioDivisor     = 10
	attackMillis               = 10
	releaseMillis              = 100
	makeupGainDB               = 2
	kneeDB                     = 2

	eqGainMinDB = -10
	eqGainMaxDB = 10

	voiceCenterHz    = 1000
	voiceBandwidthHz = 800
	voiceMaxGainDB   = 6
)

// Final output conditioning applied to every chain.
const (
	limiterLevelIn  = "1"
	limiterLevelOut = "0.95"
	limiterLimit    = "0.95"
	outputGain      = "1.2"
)

// Arg is one filter argument. An empty Key renders as a positional
// value.
type Arg struct {
	Key   string
	Value string
}

// Stage is one filter in the chain.
type Stage struct {
	Name string
	Args []Arg
}

// Build assembles the filter stages for p in processing order: band
// limiting, noise reduction, compression, per-band EQ, voice emphasis,
// then the fixed limiter and output gain. Stages whose preset value is
// zero or negative are omitted; the limiter and gain always run.
func Build(p preset.Preset) []Stage {
	var stages []Stage
	if p.HighPassHz > 0 {
		stages = append(stages, Stage{Name: "highpass", Args: []Arg{
			{Key: "f", Value: itoa(p.HighPassHz)},
		}})
	}
	if p.LowPassHz > 0 {
		stages = append(stages, Stage{Name: "lowpass", Args: []Arg{
			{Key: "f", Value: itoa(p.LowPassHz)},
		}})
	}
	if p.NoiseReduction > 0 {
		stages = append(stages, Stage{Name: "afftdn", Args: []Arg{
			{Key: "nr", Value: ftoa(p.NoiseReduction)},
			{Key: "nf", Value: itoa(noiseFloorDB)},
			{Key: "nt", Value: noiseWindowType},
		}})
	}
	if p.DynamicBoost > 0 {
		stages = append(stages, compressorStage(p.DynamicBoost))
	}
	for _, band := range p.EQBands {
		stages = append(stages, Stage{Name: "equalizer", Args: []Arg{
			{Key: "f", Value: itoa(band.FrequencyHz)},
			{Key: "t", Value: "o"},
			{Key: "g", Value: itoa(clampGain(band.GainDB))},
		}})
	}
	if p.VoiceEmphasis > 0 {
		stages = append(stages, voiceStage(p.VoiceEmphasis))
	}
	stages = append(stages, Stage{Name: "alimiter", Args: []Arg{
		{Key: "level_in", Value: limiterLevelIn},
		{Key: "level_out", Value: limiterLevelOut},
		{Key: "limit", Value: limiterLimit},
	}})
	stages = append(stages, Stage{Name: "volume", Args: []Arg{
		{Value: outputGain},
	}})
	return stages
}

// compressorStage derives compressor settings from the boost amount.
// Higher boost lowers the threshold and raises the ratio.
func compressorStage(boost int) Stage {
	threshold := float64(compressorThresholdBaseDB) + float64(boost)/compressorThresholdDivisor
	ratio := float64(compressorRatioBase) + float64(boost)/compressorRatioDivisor
	return Stage{Name: "acompressor", Args: []Arg{
		{Key: "threshold", Value: ftoa(threshold) + "dB"},
		{Key: "ratio", Value: ftoa(ratio)},
		{Key: "attack", Value: itoa(attackMillis)},
		{Key: "release", Value: itoa(releaseMillis)},
		{Key: "makeup", Value: itoa(makeupGainDB)},
		{Key: "knee", Value: itoa(kneeDB)},
	}}
}

// voiceStage boosts the speech band around 1 kHz, capped at 6 dB.
func voiceStage(emphasis int) Stage {
	if emphasis > voiceMaxGainDB {
		emphasis = voiceMaxGainDB
	}
	return Stage{Name: "equalizer", Args: []Arg{
		{Key: "f", Value: itoa(voiceCenterHz)},
		{Key: "t", Value: "o"},
		{Key: "g", Value: itoa(emphasis)},
		{Key: "w", Value: itoa(voiceBandwidthHz)},
	}}
}

func clampGain(gain int) int {
	if gain < eqGainMinDB {
		return eqGainMinDB
	}
	if gain > eqGainMaxDB {
		return eqGainMaxDB
	}
	return gain
}

// Names lists the stage names in chain order.
func Names(stages []Stage) []string {
	out := make([]string, 0, len(stages))
	for _, stage := range stages {
		out = append(out, stage.Name)
	}
	return out
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
