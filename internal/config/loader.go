package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields lets the wifi password and the bot token live in the
// environment as ${ENV_VAR} references.
func expandSensitiveFields(cfg *Config) {
	cfg.WiFi.SSID = expandEnvVars(cfg.WiFi.SSID)
	cfg.WiFi.Password = expandEnvVars(cfg.WiFi.Password)
	cfg.Slack.Token = expandEnvVars(cfg.Slack.Token)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	expandSensitiveFields(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.WiFi.Interface == "" {
		cfg.WiFi.Interface = DefaultInterface
	}
	if cfg.WiFi.MaxWaitSeconds == 0 {
		cfg.WiFi.MaxWaitSeconds = DefaultMaxWaitSeconds
	}
	if cfg.Slack.BaseURL == "" {
		cfg.Slack.BaseURL = DefaultBaseURL
	}
	cfg.Slack.BaseURL = strings.TrimRight(cfg.Slack.BaseURL, "/")
	if cfg.Slack.TimeoutSeconds == 0 {
		cfg.Slack.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Slack.ProbeURL == "" {
		cfg.Slack.ProbeURL = DefaultProbeURL
	}
	if cfg.Message.Template == "" {
		cfg.Message.Template = DefaultTemplate
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads LINKPOST_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LINKPOST_WIFI_SSID"); v != "" {
		cfg.WiFi.SSID = v
	}
	if v := os.Getenv("LINKPOST_WIFI_PASSWORD"); v != "" {
		cfg.WiFi.Password = v
	}
	if v := os.Getenv("LINKPOST_WIFI_MAX_WAIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WiFi.MaxWaitSeconds = n
		}
	}
	if v := os.Getenv("LINKPOST_SLACK_TOKEN"); v != "" {
		cfg.Slack.Token = v
	}
	if v := os.Getenv("LINKPOST_SLACK_CHANNEL"); v != "" {
		cfg.Slack.Channel = v
	}
	if v := os.Getenv("LINKPOST_HOSTNAME"); v != "" {
		cfg.Device.Hostname = v
	}
	if v := os.Getenv("LINKPOST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
