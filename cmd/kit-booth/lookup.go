package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeney/kit-booth/internal/member"
	"github.com/sweeney/kit-booth/internal/sensor"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <card-uid>",
	Short: "Resolve a card to a member through the membership API",
	Long: `Resolve a card to a member. The uid may be the reader's decimal
byte list ("195,87,179,125") or hex ("c357b37d").`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Member.BaseURL == "" {
			return errors.New("member.base_url is not configured")
		}

		card, err := sensor.CardID(args[0])
		if err != nil {
			return err
		}
		client, err := member.NewClient(member.Options{
			BaseURL:  cfg.Member.BaseURL,
			Username: cfg.Member.Username,
			Password: cfg.Member.Password,
			Timeout:  cfg.Member.Timeout,
		})
		if err != nil {
			return err
		}

		who, err := client.Lookup(cmd.Context(), card)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", card, err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), who)
		return err
	},
}
