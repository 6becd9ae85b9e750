package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var scopeOffset uint32

func init() {
	scopeCmd.Flags().Uint32Var(&scopeOffset, "offset", 0, "byte offset to inspect")
}

var scopeCmd = &cobra.Command{
	Use:   "scope <model.mzn>",
	Short: "List the names visible at a position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, snap, err := loadWorkspace(cmd, args)
		if err != nil {
			return err
		}
		files, err := snap.Files()
		if err != nil {
			return err
		}
		entries, err := snap.ScopeAt(files[0], scopeOffset)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Kind, w.RenderType(e.Type))
		}
		return tw.Flush()
	},
}
