package cli

import (
	"github.com/soyeahso/linkpost/internal/config"
	"github.com/soyeahso/linkpost/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths  config.Paths
	cfg    config.Config
	cfgErr error
	log    *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkpost",
		Short: "Bring up WiFi and post a status message to Slack",
		Long: "linkpost joins a wireless network, resolves a Slack channel by name and posts " +
			"a short status message from this device.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			// A broken config file must not block `config set` from fixing it,
			// so the error is kept for the commands that need the config.
			cfg, cfgErr = config.Load(paths.Config)
			if cfgErr != nil {
				cfg = config.Defaults()
			}

			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			if level == "" {
				level = "info"
			}
			log = logging.NewWithStyle(nil, level, cfg.Logging.ConsoleStyle)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.linkpost/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newPostCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newChannelsCmd())
	cmd.AddCommand(newHeartbeatCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadedConfig returns the config for commands that act on it.
func loadedConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	return &cfg, nil
}
