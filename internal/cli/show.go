package cli

import (
	"time"

	"github.com/spf13/cobra"

	"token-price-alerts/internal/app"
)

var showTimeout time.Duration

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the watched tokens with current prices and ladders",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowOptions{
			Timeout: showTimeout,
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().DurationVar(&showTimeout, "timeout", 30*time.Second, "Fetch timeout")
}
