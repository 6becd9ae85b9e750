package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/NathanBHay/shackle/internal/diag"
	"github.com/NathanBHay/shackle/internal/diagfmt"
	"github.com/NathanBHay/shackle/internal/driver"
	"github.com/NathanBHay/shackle/internal/ui"
)

var (
	checkFormat string
	checkUI     bool
)

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "pretty", "diagnostic output format (pretty|json)")
	checkCmd.Flags().BoolVar(&checkUI, "ui", false, "force the interactive progress view")
}

var checkCmd = &cobra.Command{
	Use:   "check [model.mzn]",
	Short: "Load a model and report every diagnostic",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkFormat != "pretty" && checkFormat != "json" {
			return fmt.Errorf("unsupported format %q (must be pretty or json)", checkFormat)
		}

		m, err := findManifest()
		if err != nil {
			return err
		}
		entry, err := resolveEntry(args, m)
		if err != nil {
			return err
		}
		w := driver.NewWorkspace(buildOptions(cmd, m))

		quiet, _ := cmd.Flags().GetBool("quiet")
		interactive := checkUI || (!quiet && checkFormat == "pretty" && isTerminal(os.Stdout))

		var snap *driver.Snapshot
		if interactive {
			snap, err = loadWithProgress(w, entry)
		} else {
			snap, err = w.Load(context.Background(), entry)
		}
		if err != nil {
			return err
		}

		items, err := snap.Diagnostics()
		if err != nil {
			return err
		}
		fs, err := snap.Sources()
		if err != nil {
			return err
		}

		if checkFormat == "json" {
			if err := diagfmt.JSON(cmd.OutOrStdout(), items, fs, diagfmt.JSONOpts{IncludeNotes: true}); err != nil {
				return err
			}
		} else {
			diagfmt.Pretty(cmd.OutOrStdout(), items, fs, diagfmt.PrettyOpts{
				Color:     useColor(cmd),
				ShowNotes: true,
			})
			if !quiet {
				printSummary(cmd, snap, items)
			}
		}

		for _, d := range items {
			if d.Severity == diag.SevError {
				os.Exit(1)
			}
		}
		return nil
	},
}

// loadWithProgress runs the load in the background while a progress view
// animates the entry file through the pipeline stages.
func loadWithProgress(w *driver.Workspace, entry string) (*driver.Snapshot, error) {
	events := make(chan ui.Event, 8)
	type outcome struct {
		snap *driver.Snapshot
		err  error
	}
	res := make(chan outcome, 1)

	go func() {
		events <- ui.Event{File: entry, Stage: ui.StageParse, Status: ui.StatusWorking}
		snap, err := w.Load(context.Background(), entry)
		status := ui.StatusDone
		if err != nil {
			status = ui.StatusError
		}
		events <- ui.Event{File: entry, Stage: ui.StageResolve, Status: status}
		close(events)
		res <- outcome{snap, err}
	}()

	model := ui.NewProgressModel("checking "+entry, []string{entry}, events)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		// drain the load result even when the terminal hiccups
		out := <-res
		if out.err != nil {
			return nil, out.err
		}
		return out.snap, nil
	}
	out := <-res
	return out.snap, out.err
}

func printSummary(cmd *cobra.Command, snap *driver.Snapshot, items []diag.Diagnostic) {
	stats, err := snap.Stats()
	if err != nil {
		return
	}
	errs := 0
	for _, d := range items {
		if d.Severity == diag.SevError {
			errs++
		}
	}
	if errs == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) checked, no errors\n", stats.Files)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) checked, %d error(s)\n", stats.Files, errs)
}
