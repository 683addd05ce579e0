// Package main hosts the clarion CLI entrypoint and command graph.
//
// The Cobra command tree covers foreground serving, one-shot local
// transforms, preset inspection, filter-chain rendering, environment
// checks, and job history review. Configuration resolution is
// centralized in the command context so subcommands stay declarative;
// the transform logic itself lives in the internal packages.
package main
