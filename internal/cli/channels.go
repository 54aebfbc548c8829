package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Look up Slack channels",
	}

	cmd.AddCommand(newChannelsResolveCmd())
	cmd.AddCommand(newChannelsListCmd())

	return cmd
}

func newChannelsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Print the id of a channel",
		Long:  "Resolves a channel name against the first page of conversations.list. Matching is exact.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig()
			if err != nil {
				return err
			}
			client, err := newSlackClient(c)
			if err != nil {
				return err
			}

			id, err := client.ResolveChannel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newChannelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the channels visible to the bot token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadedConfig()
			if err != nil {
				return err
			}
			client, err := newSlackClient(c)
			if err != nil {
				return err
			}

			channels, err := client.ListChannels(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ch := range channels {
				mark := ""
				if ch.IsPrivate {
					mark = " (private)"
				}
				fmt.Fprintf(out, "%s\t%s%s\n", ch.ID, ch.Name, mark)
			}
			return nil
		},
	}
}
