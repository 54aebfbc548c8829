package wlan

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/linkpost/internal/logging"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures a Manager.
type Option func(*Manager)

// WithSleeper replaces the wall-clock sleep between polls.
func WithSleeper(s Sleeper) Option {
	return func(m *Manager) { m.sleep = s }
}

// WithTickHandler registers a callback invoked once per poll with the
// number of polls remaining. The CLI uses it to draw progress dots.
func WithTickHandler(fn func(remaining int)) Option {
	return func(m *Manager) { m.onTick = fn }
}

// Manager drives an Interface through the link state machine. It is not
// safe for concurrent use.
type Manager struct {
	iface    Interface
	log      *logging.Logger
	sleep    Sleeper
	interval time.Duration
	onTick   func(remaining int)
	state    State
}

// NewManager creates a Manager in the Disconnected state.
func NewManager(iface Interface, log *logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		iface:    iface,
		log:      log.Sub("wlan"),
		sleep:    sleepContext,
		interval: time.Second,
		state:    Disconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current link state.
func (m *Manager) State() State { return m.state }

// Acquire brings the link up. If the interface is already connected it
// returns immediately without reconnecting. Otherwise it activates the
// radio, issues one connect request and polls once per second for up to
// maxWait polls. A non-positive maxWait uses DefaultMaxWait.
//
// On failure the returned error wraps ErrLinkUnavailable.
func (m *Manager) Acquire(ctx context.Context, ssid, password string, maxWait int) (*Link, error) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	if ok, err := m.iface.IsConnected(ctx); err != nil {
		m.log.Debug().Err(err).Msg("initial link check failed")
	} else if ok {
		link := m.connected(ctx, 0)
		link.Reused = true
		m.log.Info().Str("ifconfig", link.Config.String()).Msg("already connected")
		return link, nil
	}

	m.state = Connecting
	m.log.Info().Str("ssid", ssid).Int("maxWait", maxWait).Msg("connecting")

	if err := m.iface.SetActive(ctx, true); err != nil {
		return nil, m.fail(fmt.Errorf("%w: activate interface: %w", ErrLinkUnavailable, err))
	}
	if err := m.iface.Connect(ctx, ssid, password); err != nil {
		return nil, m.fail(fmt.Errorf("%w: connect %q: %w", ErrLinkUnavailable, ssid, err))
	}

	remaining := maxWait
	for remaining > 0 {
		if err := m.sleep(ctx, m.interval); err != nil {
			return nil, m.fail(fmt.Errorf("%w: %w", ErrLinkUnavailable, err))
		}
		remaining--
		m.tick(remaining)

		ok, err := m.iface.IsConnected(ctx)
		if err != nil {
			m.log.Debug().Err(err).Int("remaining", remaining).Msg("link check failed")
			continue
		}
		if ok {
			link := m.connected(ctx, maxWait-remaining)
			m.log.Info().
				Int("polls", link.Polls).
				Str("ifconfig", link.Config.String()).
				Msg("connected")
			return link, nil
		}
	}

	return nil, m.fail(fmt.Errorf("%w: %q not connected after %d polls", ErrLinkUnavailable, ssid, maxWait))
}

// Status reports whether the interface is connected without attempting to
// connect. The returned config is zero unless connected.
func (m *Manager) Status(ctx context.Context) (State, IfConfig, error) {
	ok, err := m.iface.IsConnected(ctx)
	if err != nil {
		return Disconnected, IfConfig{}, err
	}
	if !ok {
		return Disconnected, IfConfig{}, nil
	}
	cfg, err := m.iface.Config(ctx)
	if err != nil {
		return Connected, IfConfig{}, err
	}
	return Connected, cfg, nil
}

// SetHostname applies the device hostname through the interface.
func (m *Manager) SetHostname(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	if err := m.iface.SetHostname(ctx, name); err != nil {
		return fmt.Errorf("set hostname %q: %w", name, err)
	}
	m.log.Debug().Str("hostname", name).Msg("hostname set")
	return nil
}

func (m *Manager) connected(ctx context.Context, polls int) *Link {
	m.state = Connected
	cfg, err := m.iface.Config(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("connected but interface config unavailable")
	}
	return &Link{State: Connected, Config: cfg, Polls: polls}
}

func (m *Manager) fail(err error) error {
	m.state = Failed
	m.log.Error().Err(err).Msg("link acquisition failed")
	return err
}

func (m *Manager) tick(remaining int) {
	m.log.Trace().Int("remaining", remaining).Msg("waiting for link")
	if m.onTick != nil {
		m.onTick(remaining)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
