package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/soyeahso/linkpost/internal/compose"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// TokenUsable reports whether a bot token is non-empty and not the sample
// placeholder.
func TokenUsable(token string) bool {
	t := strings.TrimSpace(token)
	return t != "" && t != PlaceholderToken
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// WiFi validation
	if cfg.WiFi.SSID == "" {
		issues = append(issues, ValidationIssue{
			Path:    "wifi.ssid",
			Message: "ssid is required",
		})
	}
	if cfg.WiFi.MaxWaitSeconds < 1 || cfg.WiFi.MaxWaitSeconds > 300 {
		issues = append(issues, ValidationIssue{
			Path:    "wifi.maxWaitSeconds",
			Message: fmt.Sprintf("must be 1-300, got %d", cfg.WiFi.MaxWaitSeconds),
		})
	}

	// Slack validation
	if !TokenUsable(cfg.Slack.Token) {
		issues = append(issues, ValidationIssue{
			Path:    "slack.token",
			Message: "a real bot token is required (empty or placeholder value)",
		})
	}
	if u, err := url.Parse(cfg.Slack.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "slack.baseUrl",
			Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Slack.BaseURL),
		})
	}
	if cfg.Slack.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "slack.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Slack.TimeoutSeconds),
		})
	}

	// Message validation
	if _, err := compose.Parse(cfg.Message.Template); err != nil {
		issues = append(issues, ValidationIssue{
			Path:    "message.template",
			Message: err.Error(),
		})
	}
	if cfg.Message.UTCOffsetHours < -12 || cfg.Message.UTCOffsetHours > 14 {
		issues = append(issues, ValidationIssue{
			Path:    "message.utcOffsetHours",
			Message: fmt.Sprintf("must be -12..14, got %d", cfg.Message.UTCOffsetHours),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	// Hook validation
	hookGroups := map[string][]HookEntry{
		"hooks.linkAcquired":   cfg.Hooks.LinkAcquired,
		"hooks.linkFailed":     cfg.Hooks.LinkFailed,
		"hooks.messageSending": cfg.Hooks.MessageSending,
		"hooks.messageSent":    cfg.Hooks.MessageSent,
		"hooks.runFailed":      cfg.Hooks.RunFailed,
	}
	names := make([]string, 0, len(hookGroups))
	for name := range hookGroups {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for i, h := range hookGroups[name] {
			if strings.TrimSpace(h.Command) == "" {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s[%d].command", name, i),
					Message: "command is required",
				})
			}
			if h.Timeout < 0 {
				issues = append(issues, ValidationIssue{
					Path:    fmt.Sprintf("%s[%d].timeout", name, i),
					Message: fmt.Sprintf("must not be negative, got %d", h.Timeout),
				})
			}
		}
	}

	return issues
}
