package main

import (
	"token-price-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
