// Package wlan brings a wireless station interface to a connected state
// within a fixed polling budget.
//
// The Manager owns the link state machine:
//
//	Disconnected -> Connecting -> Connected
//	                           -> Failed
//
// It talks to the radio through the Interface collaborator. NMCLI is the
// production backend; tests supply scripted fakes.
package wlan

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxWait is the number of one-second polls Acquire performs when the
// caller passes a non-positive budget.
const DefaultMaxWait = 10

// ErrLinkUnavailable is returned when the interface never reports connected
// within the polling budget. No API call should follow it.
var ErrLinkUnavailable = errors.New("wlan: link unavailable")

// State is the link lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IfConfig is the network configuration assigned to a connected interface.
type IfConfig struct {
	Address string `json:"address"`
	Netmask string `json:"netmask,omitempty"`
	Gateway string `json:"gateway,omitempty"`
	DNS     string `json:"dns,omitempty"`
}

// String renders the config as an (address, netmask, gateway, dns) tuple.
func (c IfConfig) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s)", c.Address, c.Netmask, c.Gateway, c.DNS)
}

// Interface is the wireless station the Manager drives.
type Interface interface {
	// SetActive powers the radio on or off.
	SetActive(ctx context.Context, active bool) error

	// Connect asks the interface to associate with ssid. It may return
	// before association completes; the Manager polls IsConnected.
	Connect(ctx context.Context, ssid, password string) error

	// IsConnected reports whether the interface has a usable link.
	IsConnected(ctx context.Context) (bool, error)

	// Config returns the assigned address information.
	Config(ctx context.Context) (IfConfig, error)

	// SetHostname sets the name the device announces on the network.
	SetHostname(ctx context.Context, name string) error
}

// Link is the result of a successful acquisition.
type Link struct {
	State State
	// Config is informational; it may be zero if the interface could not
	// report it.
	Config IfConfig
	// Reused is true when the interface was already connected and no
	// connect request was issued.
	Reused bool
	// Polls is the number of one-second polls spent waiting.
	Polls int
}
