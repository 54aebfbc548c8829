package config

// Config is the root configuration for linkpost. It is loaded once at
// startup and passed by value into each component's constructor.
type Config struct {
	WiFi    WiFiConfig    `yaml:"wifi,omitempty"`
	Device  DeviceConfig  `yaml:"device,omitempty"`
	Slack   SlackConfig   `yaml:"slack,omitempty"`
	Message MessageConfig `yaml:"message,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Hooks   HooksConfig   `yaml:"hooks,omitempty"`
}

// WiFiConfig holds the station credentials and the link wait budget.
type WiFiConfig struct {
	SSID           string `yaml:"ssid"`
	Password       string `yaml:"password,omitempty"`
	Interface      string `yaml:"interface,omitempty"` // e.g. "wlan0"
	MaxWaitSeconds int    `yaml:"maxWaitSeconds,omitempty"`
}

// DeviceConfig identifies this device in composed messages.
type DeviceConfig struct {
	Hostname string `yaml:"hostname,omitempty"`
	CallerID string `yaml:"callerId,omitempty"`
}

// SlackConfig configures the Web API client.
type SlackConfig struct {
	Token          string `yaml:"token"`
	BaseURL        string `yaml:"baseUrl,omitempty"`
	Channel        string `yaml:"channel,omitempty"` // channel name, not id
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
	ProbeURL       string `yaml:"probeUrl,omitempty"`
}

// MessageConfig controls decorative message composition.
type MessageConfig struct {
	Template       string `yaml:"template,omitempty"` // text/template over .Emoji .Caller .Hostname .Time .Text
	UTCOffsetHours int    `yaml:"utcOffsetHours,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// HooksConfig maps run events to shell commands.
type HooksConfig struct {
	LinkAcquired   []HookEntry `yaml:"linkAcquired,omitempty"`
	LinkFailed     []HookEntry `yaml:"linkFailed,omitempty"`
	MessageSending []HookEntry `yaml:"messageSending,omitempty"`
	MessageSent    []HookEntry `yaml:"messageSent,omitempty"`
	RunFailed      []HookEntry `yaml:"runFailed,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
