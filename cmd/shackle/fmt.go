package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fmtWrite bool

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "rewrite the file in place")
}

var fmtCmd = &cobra.Command{
	Use:     "fmt <model.mzn>",
	Aliases: []string{"print"},
	Short:   "Print the canonical form of a model",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, snap, err := loadWorkspace(cmd, args)
		if err != nil {
			return err
		}
		files, err := snap.Files()
		if err != nil {
			return err
		}
		out, err := snap.PrettyPrint(files[0])
		if err != nil {
			return err
		}
		if fmtWrite {
			return os.WriteFile(files[0], []byte(out), 0o644)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}
