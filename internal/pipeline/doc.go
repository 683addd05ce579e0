// Package pipeline runs uploaded media through the probe and transform steps.
//
// The Processor persists the upload to scratch, inspects it with ffprobe,
// resolves the requested preset into an ffmpeg filter chain, and invokes
// ffmpeg to produce a normalized WAV file. Jobs advance through received,
// persisted, probed, transformed, and completed or failed, and every failure
// is tagged with a sentinel error so the HTTP layer can map it to a response
// status. Finished jobs are recorded in the history store and announced
// through the notification service when configured.
//
// Scratch files live under the configured scratch directory with
// input_/output_ prefixes; SweepScratch reclaims files left behind by
// interrupted jobs.
package pipeline
