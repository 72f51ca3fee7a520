package cli

import (
	"time"

	"github.com/spf13/cobra"

	"token-price-alerts/internal/app"
)

var (
	exportDuration  time.Duration
	exportInterval  time.Duration
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Capture live prices for a window and write CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Duration:  exportDuration,
			Interval:  exportInterval,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().DurationVar(&exportDuration, "duration", 5*time.Minute, "Capture window length")
	exportCmd.Flags().DurationVar(&exportInterval, "interval", 0, "Sample interval (defaults to sampler.reference_poll_interval)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
