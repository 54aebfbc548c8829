package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/soyeahso/linkpost/internal/config"
	"github.com/soyeahso/linkpost/internal/slack"
	"github.com/soyeahso/linkpost/internal/transport"
	"github.com/soyeahso/linkpost/internal/version"
	"github.com/soyeahso/linkpost/internal/wlan"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var skipProbe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show link state, configuration summary and internet reachability",
		Long:  "Reports the interface state without connecting, then probes slack.probeUrl.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", version.Banner())
			fmt.Fprintf(out, "Config:  %s\n", paths.Config)

			c, err := loadedConfig()
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}

			printConfigSummary(out, c)

			mgr := newLinkManager(c, nil)
			state, ifc, err := mgr.Status(cmd.Context())
			printLink(out, state, ifc, err)

			if !skipProbe {
				probe(cmd.Context(), out, c)
			}

			if issues := config.Validate(c); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipProbe, "no-probe", false, "skip the internet reachability check")
	return cmd
}

func printConfigSummary(out io.Writer, c *config.Config) {
	ssid := c.WiFi.SSID
	if ssid == "" {
		ssid = "(not set)"
	}
	fmt.Fprintf(out, "WiFi:    ssid=%s interface=%s maxWait=%ds\n", ssid, c.WiFi.Interface, c.WiFi.MaxWaitSeconds)

	token := "missing"
	if config.TokenUsable(c.Slack.Token) {
		token = "set"
	} else if c.Slack.Token == config.PlaceholderToken {
		token = "placeholder"
	}
	fmt.Fprintf(out, "Slack:   base=%s channel=%s token=%s\n", c.Slack.BaseURL, c.Slack.Channel, token)

	if c.Device.Hostname != "" {
		fmt.Fprintf(out, "Device:  hostname=%s caller=%s\n", c.Device.Hostname, c.Device.CallerID)
	}
}

func printLink(out io.Writer, state wlan.State, ifc wlan.IfConfig, err error) {
	if err != nil {
		fmt.Fprintf(out, "Link:    %s (%v)\n", state, err)
		return
	}
	if state == wlan.Connected {
		fmt.Fprintf(out, "Link:    %s %s\n", state, ifc)
		return
	}
	fmt.Fprintf(out, "Link:    %s\n", state)
}

// probe checks internet reachability. It needs no token.
func probe(ctx context.Context, out io.Writer, c *config.Config) {
	if c.Slack.ProbeURL == "" {
		fmt.Fprintln(out, "Probe:   (no probeUrl configured)")
		return
	}

	tr := transport.NewHTTP(time.Duration(c.Slack.TimeoutSeconds) * time.Second)
	body, err := slack.Probe(ctx, tr, c.Slack.ProbeURL)
	if err != nil {
		fmt.Fprintf(out, "Probe:   FAILED %v\n", err)
		return
	}
	fmt.Fprintf(out, "Probe:   ok %s\n", firstLine(body, 80))
}

func firstLine(s string, max int) string {
	for i, r := range s {
		if r == '\n' || r == '\r' {
			s = s[:i]
			break
		}
	}
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
