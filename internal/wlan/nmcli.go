package wlan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/soyeahso/linkpost/internal/logging"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// NMCLIOption configures an NMCLI backend.
type NMCLIOption func(*NMCLI)

// WithRunner replaces command execution, for tests.
func WithRunner(r Runner) NMCLIOption {
	return func(n *NMCLI) { n.run = r }
}

// NMCLI implements Interface on top of NetworkManager's nmcli tool.
type NMCLI struct {
	ifname string
	run    Runner
	log    *logging.Logger
}

// NewNMCLI creates a backend bound to a single wireless device.
func NewNMCLI(ifname string, log *logging.Logger, opts ...NMCLIOption) *NMCLI {
	n := &NMCLI{
		ifname: ifname,
		run:    execRunner,
		log:    log.Sub("nmcli"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SetActive switches the wifi radio on or off.
func (n *NMCLI) SetActive(ctx context.Context, active bool) error {
	state := "off"
	if active {
		state = "on"
	}
	_, err := n.nmcli(ctx, "radio", "wifi", state)
	return err
}

// Connect starts association without waiting for it to complete.
func (n *NMCLI) Connect(ctx context.Context, ssid, password string) error {
	args := []string{"--wait", "0", "device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", n.ifname)
	_, err := n.nmcli(ctx, args...)
	return err
}

// IsConnected reports whether the device's GENERAL.STATE is 100 (connected).
func (n *NMCLI) IsConnected(ctx context.Context) (bool, error) {
	out, err := n.nmcli(ctx, "-t", "-g", "GENERAL.STATE", "device", "show", n.ifname)
	if err != nil {
		return false, err
	}
	state := strings.TrimSpace(string(out))
	return strings.HasPrefix(state, "100"), nil
}

// Config reads the first IPv4 address, gateway and DNS server.
func (n *NMCLI) Config(ctx context.Context) (IfConfig, error) {
	out, err := n.nmcli(ctx, "-t", "-f", "IP4.ADDRESS,IP4.GATEWAY,IP4.DNS", "device", "show", n.ifname)
	if err != nil {
		return IfConfig{}, err
	}
	return parseIPv4Config(string(out))
}

// SetHostname sets the system hostname through NetworkManager.
func (n *NMCLI) SetHostname(ctx context.Context, name string) error {
	_, err := n.nmcli(ctx, "general", "hostname", name)
	return err
}

func (n *NMCLI) nmcli(ctx context.Context, args ...string) ([]byte, error) {
	n.log.Trace().Strs("args", redactArgs(args)).Msg("nmcli")
	out, err := n.run(ctx, "nmcli", args...)
	if err != nil {
		return nil, fmt.Errorf("nmcli %s: %w", args[0], err)
	}
	return out, nil
}

// parseIPv4Config parses `nmcli -t -f IP4.ADDRESS,IP4.GATEWAY,IP4.DNS` output.
// Indexed fields such as IP4.ADDRESS[1] keep only the first entry.
func parseIPv4Config(out string) (IfConfig, error) {
	var cfg IfConfig
	for _, line := range strings.Split(out, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || value == "" {
			continue
		}
		if i := strings.IndexByte(key, '['); i >= 0 {
			key = key[:i]
		}
		switch key {
		case "IP4.ADDRESS":
			if cfg.Address != "" {
				continue
			}
			ip, ipnet, err := net.ParseCIDR(value)
			if err != nil {
				return IfConfig{}, fmt.Errorf("parse address %q: %w", value, err)
			}
			cfg.Address = ip.String()
			cfg.Netmask = net.IP(ipnet.Mask).String()
		case "IP4.GATEWAY":
			if cfg.Gateway == "" {
				cfg.Gateway = value
			}
		case "IP4.DNS":
			if cfg.DNS == "" {
				cfg.DNS = value
			}
		}
	}
	if cfg.Address == "" {
		return IfConfig{}, errors.New("no IPv4 address assigned")
	}
	return cfg, nil
}

// redactArgs hides the value following a "password" argument.
func redactArgs(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i := 0; i < len(out)-1; i++ {
		if out[i] == "password" {
			out[i+1] = "***"
		}
	}
	return out
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("exited %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return out, nil
}
