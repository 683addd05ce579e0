package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clarion/internal/config"
)

const userAgent = "Clarion/0.1.0"

// Event identifies a pipeline milestone worth announcing.
type Event string

const (
	// EventJobCompleted fires after a transform finishes and the output is ready.
	EventJobCompleted Event = "job-completed"
	// EventJobFailed fires when a transform job ends in a failure state.
	EventJobFailed Event = "job-failed"
)

// Payload carries the event-specific fields used to build the message body.
// Recognized keys are "name" (original upload name), "preset" (preset label),
// "kind" (failure kind), and "error" (failure detail).
type Payload map[string]string

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	Publish(ctx context.Context, event Event, data Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		completions: cfg.Notifications.Completions,
		failures:    cfg.Notifications.Failures,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	completions bool
	failures    bool
}

// Publish delivers the event to the configured topic. Events disabled in the
// configuration are dropped without error.
func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	switch event {
	case EventJobCompleted:
		if !n.completions {
			return nil
		}
		return n.send(ctx, formatCompleted(data))
	case EventJobFailed:
		if !n.failures {
			return nil
		}
		return n.send(ctx, formatFailed(data))
	default:
		return nil
	}
}

func formatCompleted(data Payload) message {
	name := strings.TrimSpace(data["name"])
	if name == "" {
		name = "upload"
	}
	preset := strings.TrimSpace(data["preset"])
	if preset == "" {
		preset = "default preset"
	}
	return message{
		title: "Clarion - Job Complete",
		body:  fmt.Sprintf("🎧 %s processed with %s", name, preset),
		tags:  []string{"clarion", "job", "completed"},
	}
}

func formatFailed(data Payload) message {
	var builder strings.Builder
	builder.WriteString("❌ Transform failed")
	if name := strings.TrimSpace(data["name"]); name != "" {
		builder.WriteString(" for ")
		builder.WriteString(name)
	}
	if kind := strings.TrimSpace(data["kind"]); kind != "" {
		builder.WriteString(" (")
		builder.WriteString(kind)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	if detail := strings.TrimSpace(data["error"]); detail != "" {
		builder.WriteString(detail)
	} else {
		builder.WriteString("unknown")
	}
	return message{
		title:    "Clarion - Job Failed",
		body:     builder.String(),
		tags:     []string{"clarion", "job", "failed"},
		priority: "high",
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
