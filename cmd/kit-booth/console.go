package main

import (
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the booth from the terminal (e|x|c <id>, q to quit)",
	Long: `Run the booth without readers. Type "e <tag>" when a tag enters,
"x <tag>" when it exits and "c <card>" to present a card; "q" quits.
The light is drawn on the terminal. Booking events are still published
when mqtt.broker is configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := withShutdown(cmd.Context())
		defer stop()
		return runBooth(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}
