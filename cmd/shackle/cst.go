package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NathanBHay/shackle/internal/cst"
	"github.com/NathanBHay/shackle/internal/parser"
	"github.com/NathanBHay/shackle/internal/source"
)

var cstCmd = &cobra.Command{
	Use:   "cst <model.mzn>",
	Short: "Dump the concrete syntax tree of one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := source.NewFileSet()
		id, err := fs.Load(args[0])
		if err != nil {
			return err
		}
		root := parser.New().Parse(id, fs.Get(id).Content)
		fmt.Fprint(cmd.OutOrStdout(), cst.Dump(root))
		return nil
	},
}
