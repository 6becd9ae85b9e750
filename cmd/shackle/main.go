package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/NathanBHay/shackle/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "shackle",
	Short: "Shackle constraint model checker and toolchain",
	Long:  `Shackle analyzes constraint models: parsing, scoping, overload resolution and canonical formatting.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cstCmd)
	rootCmd.AddCommand(astCmd)
	rootCmd.AddCommand(hirCmd)
	rootCmd.AddCommand(scopeCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics per file (0 = default)")
	rootCmd.PersistentFlags().StringArray("include-dir", nil, "extra include search directory (repeatable)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the output terminal.
func useColor(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout) && !color.NoColor
	}
}
