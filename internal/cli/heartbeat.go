package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/soyeahso/linkpost/internal/runner"
	"github.com/spf13/cobra"
	"github.com/tillberg/autorestart"
)

func newHeartbeatCmd() *cobra.Command {
	var (
		interval  time.Duration
		channel   string
		noRestart bool
	)

	cmd := &cobra.Command{
		Use:   "heartbeat [text...]",
		Short: "Post a message periodically until interrupted",
		Long: "Posts once immediately and then every --interval. A failed run is logged " +
			"and the next tick tries again. The process restarts itself when its binary " +
			"is replaced, so a redeploy takes effect without a manual restart.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval < time.Second {
				return fmt.Errorf("interval must be at least 1s, got %s", interval)
			}
			c, err := loadedConfig()
			if err != nil {
				return err
			}
			r, err := newRunner(c, nil)
			if err != nil {
				return err
			}

			if !noRestart {
				go autorestart.RestartOnChange()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			req := runner.Request{Channel: channel, Text: strings.Join(args, " ")}
			log.Info().Dur("interval", interval).Msg("heartbeat started")
			return heartbeat(ctx, interval, func(ctx context.Context) error {
				_, err := r.Run(ctx, req)
				return err
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 15*time.Minute, "time between posts")
	cmd.Flags().StringVarP(&channel, "channel", "c", "", "channel name (default slack.channel)")
	cmd.Flags().BoolVar(&noRestart, "no-restart", false, "do not restart when the binary changes")

	return cmd
}

// heartbeat calls run immediately and then on every tick until ctx is done.
// Run errors are logged and do not stop the loop.
func heartbeat(ctx context.Context, interval time.Duration, run func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		if err := run(ctx); err != nil {
			log.Warn().Err(err).Int("beat", n).Str("hint", diagnose(err)).Msg("heartbeat run failed")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("heartbeat stopped")
			return nil
		case <-ticker.C:
		}
	}
}
