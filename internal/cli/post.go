package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/soyeahso/linkpost/internal/config"
	"github.com/soyeahso/linkpost/internal/runner"
	"github.com/spf13/cobra"
)

func newPostCmd() *cobra.Command {
	var (
		channel string
		thread  string
		raw     bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "post [text...]",
		Short: "Connect to WiFi and post a message",
		Long: "Joins the configured network, resolves the channel and posts one message. " +
			"Without --raw the text is rendered into the configured message template.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig()
			if err != nil {
				return err
			}
			report, err := post(cmd.Context(), c, cmd.ErrOrStderr(), runner.Request{
				Channel:  channel,
				ThreadTS: thread,
				Text:     strings.Join(args, " "),
				Raw:      raw,
			})
			if err != nil {
				if hint := diagnose(err); hint != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "hint: %s\n", hint)
				}
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Fprintf(out, "Posted to %s (ts %s)\n", report.ChannelID, report.Result.TS)
			fmt.Fprintf(out, "Message: %s\n", report.Message)
			if report.HookFailures > 0 {
				fmt.Fprintf(out, "Hooks:   %d failed (see log)\n", report.HookFailures)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "c", "", "channel name (default slack.channel)")
	cmd.Flags().StringVar(&thread, "thread", "", "reply in the thread with this ts")
	cmd.Flags().BoolVar(&raw, "raw", false, "post text verbatim without the message template")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON")

	return cmd
}

func post(ctx context.Context, c *config.Config, progress io.Writer, req runner.Request) (*runner.Report, error) {
	r, err := newRunner(c, progress)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, req)
}
