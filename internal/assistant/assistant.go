// Package assistant answers naming-convention questions through a hosted
// language model.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"go.uber.org/zap"
)

// Roles of conversation turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// DefaultSystemPrompt steers the model toward AdOps naming help.
const DefaultSystemPrompt = `You are an AdOps assistant for Campaign Manager 360 trafficking.
Help operators design and apply placement naming conventions of the form
brand-iso_site_campaign_channel_funnel_tech_device_format_size_.
Answer concisely and in plain text.`

const normalizePrompt = `Normalize each of the following placement names to the convention
brand-iso_site_campaign_channel_funnel_tech_device_format_size_.
Return exactly one name per line, in the same order, with no numbering and no extra text.`

// Degraded-mode replies.
const (
	UnavailableText = "The assistant is not configured. Set GEMINI_API_KEY to enable it."
	FailureText     = "The assistant could not answer right now. Please try again."
)

// ErrNotConfigured is returned by models that have no credentials.
var ErrNotConfigured = errors.New("assistant model not configured")

// Turn is one message of a conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Model generates a reply to a conversation.
type Model interface {
	Generate(ctx context.Context, system string, history []Turn, message string) (string, error)
}

// Assistant never fails its caller: missing configuration and model errors
// turn into degraded text.
type Assistant struct {
	model   Model
	system  string
	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

// New creates an assistant. A nil model runs in degraded mode.
func New(model Model, systemPrompt string, logger *zap.Logger, metrics observability.MetricsRegistry) *Assistant {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Assistant{model: model, system: systemPrompt, logger: logger, metrics: metrics}
}

// Available reports whether a model is configured.
func (a *Assistant) Available() bool { return a.model != nil }

// Chat answers message in the context of history.
func (a *Assistant) Chat(ctx context.Context, history []Turn, message string) string {
	if a.model == nil {
		a.metrics.IncrementAssistantRequests("chat", "unconfigured")
		return UnavailableText
	}
	reply, err := a.model.Generate(ctx, a.system, sanitize(history), message)
	if err != nil {
		a.metrics.IncrementAssistantRequests("chat", outcomeOf(err))
		a.logger.Warn("assistant chat failed", zap.Error(err))
		if errors.Is(err, ErrNotConfigured) {
			return UnavailableText
		}
		return FailureText
	}
	a.metrics.IncrementAssistantRequests("chat", "success")
	return strings.TrimSpace(reply)
}

// NormalizeNames asks the model to rewrite names to the naming convention.
// The result always has len(names) entries; any missing or blank line falls
// back to the original name at that index.
func (a *Assistant) NormalizeNames(ctx context.Context, names []string) []string {
	out := append([]string(nil), names...)
	if len(names) == 0 {
		return out
	}
	if a.model == nil {
		a.metrics.IncrementAssistantRequests("normalize", "unconfigured")
		return out
	}

	reply, err := a.model.Generate(ctx, a.system, nil, normalizePrompt+"\n\n"+strings.Join(names, "\n"))
	if err != nil {
		a.metrics.IncrementAssistantRequests("normalize", outcomeOf(err))
		a.logger.Warn("assistant normalize failed", zap.Error(err))
		return out
	}

	lines := splitLines(reply)
	if len(lines) != len(names) {
		a.logger.Info("assistant returned a different number of names",
			zap.Int("want", len(names)),
			zap.Int("got", len(lines)))
	}
	for i := range out {
		if i < len(lines) && lines[i] != "" {
			out[i] = lines[i]
		}
	}
	a.metrics.IncrementAssistantRequests("normalize", "success")
	return out
}

func splitLines(s string) []string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return nil
	}
	// models like to fence lists in code blocks
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.Trim(s, "\n")
	raw := strings.Split(s, "\n")
	out := make([]string, len(raw))
	for i, l := range raw {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func sanitize(history []Turn) []Turn {
	out := make([]Turn, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		if t.Role != RoleModel {
			t.Role = RoleUser
		}
		out = append(out, t)
	}
	return out
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "unconfigured"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "failure"
	}
}
