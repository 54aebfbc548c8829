package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/soyeahso/linkpost/internal/config"
	"github.com/soyeahso/linkpost/internal/hooks"
	"github.com/soyeahso/linkpost/internal/runner"
	"github.com/soyeahso/linkpost/internal/slack"
	"github.com/soyeahso/linkpost/internal/transport"
	"github.com/soyeahso/linkpost/internal/wlan"
)

// validateFor reports config issues under the given top-level sections as
// one error.
func validateFor(c *config.Config, sections ...string) error {
	var msgs []string
	for _, issue := range config.Validate(c) {
		for _, s := range sections {
			if issue.Path == s || strings.HasPrefix(issue.Path, s+".") {
				msgs = append(msgs, issue.String())
				break
			}
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return &config.ConfigError{Message: "invalid configuration:\n  " + strings.Join(msgs, "\n  ")}
}

func newSlackClient(c *config.Config) (*slack.Client, error) {
	timeout := time.Duration(c.Slack.TimeoutSeconds) * time.Second
	return slack.New(c.Slack.Token,
		slack.WithBaseURL(c.Slack.BaseURL),
		slack.WithTransport(transport.NewHTTP(timeout)),
		slack.WithLogger(log),
	)
}

// nmcliRunner executes nmcli. Tests replace it with a scripted runner so
// commands never touch the host's NetworkManager.
var nmcliRunner wlan.Runner

// newLinkManager builds the WiFi manager. With progress set, each poll
// prints a dot there.
func newLinkManager(c *config.Config, progress io.Writer) *wlan.Manager {
	var nmOpts []wlan.NMCLIOption
	if nmcliRunner != nil {
		nmOpts = append(nmOpts, wlan.WithRunner(nmcliRunner))
	}
	iface := wlan.NewNMCLI(c.WiFi.Interface, log, nmOpts...)
	var opts []wlan.Option
	if progress != nil {
		opts = append(opts, wlan.WithTickHandler(func(remaining int) {
			fmt.Fprint(progress, ".")
			if remaining == 0 {
				fmt.Fprintln(progress)
			}
		}))
	}
	return wlan.NewManager(iface, log, opts...)
}

func newHooks(c *config.Config) *hooks.Manager {
	hk := hooks.NewManager(log)
	dir := ""
	if fi, err := os.Stat(paths.Hooks); err == nil && fi.IsDir() {
		dir = paths.Hooks
	}
	if n := hk.RegisterConfig(c.Hooks, hooks.ShellIn(dir)); n > 0 {
		log.Debug().Int("count", n).Msg("config hooks registered")
	}
	return hk
}

func newRunner(c *config.Config, progress io.Writer) (*runner.Runner, error) {
	if err := validateFor(c, "wifi", "slack", "message", "hooks"); err != nil {
		return nil, err
	}
	client, err := newSlackClient(c)
	if err != nil {
		return nil, err
	}
	return runner.NewRunner(runner.ConfigFrom(c), newLinkManager(c, progress), client, newHooks(c), log), nil
}
