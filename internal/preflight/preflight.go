package preflight

import (
	"fmt"

	"clarion/internal/config"
	"clarion/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, toolResult(status))
	}
	return results
}

func toolResult(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available}
	if status.Available {
		result.Detail = fmt.Sprintf("%s (found)", status.Command)
		return result
	}
	result.Detail = status.Detail
	return result
}

// Failed filters results down to failing checks.
func Failed(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if !result.Passed {
			out = append(out, result)
		}
	}
	return out
}
