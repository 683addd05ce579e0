package preflight

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clarion/internal/config"
)

const ntfyCheckTimeout = 5 * time.Second

// CheckNtfyFromConfig evaluates notification readiness from config and
// endpoint connectivity. A disabled topic passes without any network
// traffic, so RunAll stays offline and only doctor reaches out.
func CheckNtfyFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return checkNtfyEndpoint(context.Background(), topic)
}

func checkNtfyEndpoint(ctx context.Context, topic string) Result {
	const name = "Notifications"

	ctx, cancel := context.WithTimeout(ctx, ntfyCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, topic, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("Invalid topic URL: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("Unreachable: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return Result{Name: name, Detail: fmt.Sprintf("Endpoint error (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%s)", topic)}
}
