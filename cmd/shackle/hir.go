package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NathanBHay/shackle/internal/hir"
)

var astCmd = &cobra.Command{
	Use:   "ast [model.mzn]",
	Short: "Dump the abstract view of the entry file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, snap, err := loadWorkspace(cmd, args)
		if err != nil {
			return err
		}
		files, err := snap.Files()
		if err != nil {
			return err
		}
		out, err := snap.DumpHIR(files[0], hir.DumpOptions{})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var hirCmd = &cobra.Command{
	Use:   "hir [model.mzn]",
	Short: "Dump the lowered form with node ids and resolved references",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, snap, err := loadWorkspace(cmd, args)
		if err != nil {
			return err
		}
		files, err := snap.Files()
		if err != nil {
			return err
		}
		res, err := snap.Resolution(files[0])
		if err != nil {
			return err
		}
		opts := hir.DumpOptions{
			NodeIDs: true,
			Annotate: func(id hir.NodeID) string {
				if sym, ok := res.Bindings[id]; ok {
					return fmt.Sprintf("-> sym%d", sym)
				}
				if t, ok := res.Types[id]; ok {
					return ": " + w.RenderType(t)
				}
				return ""
			},
		}
		out, err := snap.DumpHIR(files[0], opts)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}
