package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"token-price-alerts/internal/app"
)

var (
	simulateToken     string
	simulateReference float64
	simulateRate      float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次价格快照并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateReference <= 0 || simulateRate <= 0 {
			return errors.New("--reference 与 --rate 必须大于 0")
		}

		opts := app.SimulateOptions{
			Token:        simulateToken,
			ReferenceUSD: simulateReference,
			DerivedRate:  simulateRate,
		}
		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateToken, "token", "", "Token name (defaults to the first configured token)")
	simulateCmd.Flags().Float64Var(&simulateReference, "reference", 0, "参考单位 USD 价格")
	simulateCmd.Flags().Float64Var(&simulateRate, "rate", 0, "Token 相对参考单位的汇率")
}
