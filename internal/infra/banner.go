package infra

import (
	"fmt"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
)

// PrintBanner displays the startup banner with mode-specific warnings.
func PrintBanner(cfg *Config) {
	mode := strings.ToUpper(cfg.Trading.Mode)
	version := cfg.App.Version

	color := colorCyan
	modeDesc := "VIRTUAL ACCOUNT (PAPER)"
	if mode == "REAL" {
		color = colorRed
		modeDesc = "REAL MONEY TRADING"
	}

	fmt.Println()
	fmt.Printf("%s=========================================================%s\n", color, colorReset)
	fmt.Printf("%s  Stoc.kr Trading Client%s\n", color, colorReset)
	fmt.Printf("%s  MODE:    %-44s%s\n", color, mode, colorReset)
	fmt.Printf("%s  TYPE:    %-44s%s\n", color, modeDesc, colorReset)
	fmt.Printf("%s  VERSION: %-44s%s\n", color, version, colorReset)
	if mode == "REAL" {
		fmt.Printf("%s  WARNING: orders will be placed against a real account%s\n", colorYellow, colorReset)
	}
	fmt.Printf("%s=========================================================%s\n", color, colorReset)
	fmt.Println()
}
