// Package runner drives one linkpost run: bring the link up, name the
// device, resolve the channel, compose the message and post it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/linkpost/internal/compose"
	"github.com/soyeahso/linkpost/internal/config"
	"github.com/soyeahso/linkpost/internal/hooks"
	"github.com/soyeahso/linkpost/internal/logging"
	"github.com/soyeahso/linkpost/internal/slack"
	"github.com/soyeahso/linkpost/internal/wlan"
)

// ErrEmptyMessage is returned for a raw post without text.
var ErrEmptyMessage = errors.New("raw message requires text")

// Linker brings the network link up. *wlan.Manager satisfies it.
type Linker interface {
	Acquire(ctx context.Context, ssid, password string, maxWait int) (*wlan.Link, error)
	State() wlan.State
	SetHostname(ctx context.Context, name string) error
}

// Messenger resolves channels and posts messages. *slack.Client satisfies it.
type Messenger interface {
	ResolveChannel(ctx context.Context, name string) (string, error)
	SendMessage(ctx context.Context, msg slack.OutboundMessage) (*slack.PostResult, error)
}

// RunnerConfig holds the per-device settings a run needs.
type RunnerConfig struct {
	SSID     string
	Password string
	MaxWait  int
	Hostname string
	Channel  string // default channel name
	Composer *compose.Composer
}

// Request describes one post. Empty fields fall back to RunnerConfig.
type Request struct {
	Channel  string
	ThreadTS string
	Text     string
	// Raw posts Text verbatim instead of rendering the message template.
	Raw bool
}

// Report is the outcome of a successful run.
type Report struct {
	RunID     string            `json:"runId"`
	Link      *wlan.Link        `json:"link"`
	ChannelID string            `json:"channelId"`
	Message   string            `json:"message"`
	Result    *slack.PostResult `json:"result"`
	Duration  time.Duration     `json:"duration"`

	// HookFailures counts hook handlers that returned an error.
	HookFailures int `json:"hookFailures,omitempty"`
}

// Runner sequences the link manager and the messaging client. After the
// hostname step, each step runs only after the previous one succeeded.
type Runner struct {
	cfg   RunnerConfig
	link  Linker
	msg   Messenger
	hooks *hooks.Manager
	log   *logging.Logger
	newID func() string
}

// NewRunner creates a runner. hk may be nil.
func NewRunner(cfg RunnerConfig, link Linker, msg Messenger, hk *hooks.Manager, log *logging.Logger) *Runner {
	if hk == nil {
		hk = hooks.NewManager(log)
	}
	if cfg.Composer == nil {
		cfg.Composer = &compose.Composer{Template: config.DefaultTemplate}
	}
	return &Runner{
		cfg:   cfg,
		link:  link,
		msg:   msg,
		hooks: hk,
		log:   log.Sub("runner"),
		newID: uuid.NewString,
	}
}

// Run performs one post. Any failure stops the run, fires run_failed and is
// returned; nothing is retried.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: r.newID()}
	log := r.log.With("runId", report.RunID)
	emit := func(event string, data map[string]any) {
		data["runId"] = report.RunID
		report.HookFailures += r.hooks.Emit(ctx, event, data)
	}

	fail := func(stage string, err error) (*Report, error) {
		log.Error().Err(err).Str("stage", stage).Stringer("link", r.link.State()).Msg("run failed")
		emit(hooks.EventRunFailed, map[string]any{
			"stage": stage,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%s: %w", stage, err)
	}

	// The name goes out with the DHCP request, so it is set before connecting.
	if r.cfg.Hostname != "" {
		if err := r.link.SetHostname(ctx, r.cfg.Hostname); err != nil {
			log.Warn().Err(err).Str("hostname", r.cfg.Hostname).Msg("hostname not applied")
		}
	}

	log.Info().Str("ssid", r.cfg.SSID).Msg("acquiring link")
	link, err := r.link.Acquire(ctx, r.cfg.SSID, r.cfg.Password, r.cfg.MaxWait)
	if err != nil {
		emit(hooks.EventLinkFailed, map[string]any{
			"ssid":  r.cfg.SSID,
			"error": err.Error(),
		})
		return fail("link", err)
	}
	report.Link = link
	log.Info().
		Str("ifconfig", link.Config.String()).
		Bool("reused", link.Reused).
		Int("polls", link.Polls).
		Msg("link up")
	emit(hooks.EventLinkAcquired, map[string]any{
		"ssid":    r.cfg.SSID,
		"address": link.Config.Address,
		"reused":  link.Reused,
	})

	text, err := r.message(req)
	if err != nil {
		return fail("compose", err)
	}
	report.Message = text

	name := req.Channel
	if name == "" {
		name = r.cfg.Channel
	}
	if name == "" {
		return fail("resolve", slack.ErrChannelRequired)
	}
	id, err := r.msg.ResolveChannel(ctx, name)
	if err != nil {
		return fail("resolve", err)
	}
	report.ChannelID = id
	log.Info().Str("channel", name).Str("id", id).Msg("channel resolved")

	out := slack.OutboundMessage{Channel: id, Text: text, ThreadTS: req.ThreadTS}
	emit(hooks.EventMessageSending, map[string]any{
		"channel":  id,
		"text":     text,
		"threadTs": req.ThreadTS,
	})

	res, err := r.msg.SendMessage(ctx, out)
	if err != nil {
		return fail("send", err)
	}
	report.Result = res
	report.Duration = time.Since(start)

	log.Info().Str("ts", res.TS).Dur("duration", report.Duration).Msg("message sent")
	emit(hooks.EventMessageSent, map[string]any{
		"channel": res.Channel,
		"ts":      res.TS,
		"text":    text,
	})
	return report, nil
}

func (r *Runner) message(req Request) (string, error) {
	if req.Raw {
		if req.Text == "" {
			return "", ErrEmptyMessage
		}
		return req.Text, nil
	}
	return r.cfg.Composer.Compose(req.Text)
}

// ConfigFrom derives a RunnerConfig from the loaded configuration.
func ConfigFrom(cfg *config.Config) RunnerConfig {
	return RunnerConfig{
		SSID:     cfg.WiFi.SSID,
		Password: cfg.WiFi.Password,
		MaxWait:  cfg.WiFi.MaxWaitSeconds,
		Hostname: cfg.Device.Hostname,
		Channel:  cfg.Slack.Channel,
		Composer: &compose.Composer{
			Template:    cfg.Message.Template,
			Caller:      cfg.Device.CallerID,
			Hostname:    cfg.Device.Hostname,
			OffsetHours: cfg.Message.UTCOffsetHours,
		},
	}
}
