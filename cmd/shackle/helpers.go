package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/NathanBHay/shackle/internal/driver"
	"github.com/NathanBHay/shackle/internal/project"
)

// resolveEntry picks the model file to load: the positional argument when
// present, otherwise the manifest's entry.
func resolveEntry(args []string, m *project.Manifest) (string, error) {
	if len(args) > 0 {
		return filepath.Abs(args[0])
	}
	if m != nil && m.Model.Entry != "" {
		return m.Model.Entry, nil
	}
	return "", fmt.Errorf("no model file given and no entry in %s", project.ManifestName)
}

// findManifest loads the nearest shackle.toml above the working directory,
// or returns nil when none exists.
func findManifest() (*project.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	path := project.FindManifest(wd)
	if path == "" {
		return nil, nil
	}
	return project.LoadManifest(path)
}

// buildOptions merges manifest settings and command flags into driver
// options. Flags win over the manifest.
func buildOptions(cmd *cobra.Command, m *project.Manifest) driver.Options {
	var dirs []string
	if m != nil {
		dirs = append(dirs, m.Includes.Dirs...)
	}
	if flagDirs, _ := cmd.Flags().GetStringArray("include-dir"); len(flagDirs) > 0 {
		dirs = append(dirs, flagDirs...)
	}
	opts := driver.Options{Locator: project.NewDirLocator(dirs...)}
	if m != nil {
		opts.MaxDiagnostics = m.Check.MaxDiagnostics
	}
	if n, _ := cmd.Flags().GetInt("max-diagnostics"); n > 0 {
		opts.MaxDiagnostics = n
	}
	// best effort; checking works without a cache
	if cache, err := driver.NewDiskCache(""); err == nil {
		opts.Cache = cache
	}
	return opts
}

// loadWorkspace wires manifest, flags and entry file into a loaded
// workspace snapshot.
func loadWorkspace(cmd *cobra.Command, args []string) (*driver.Workspace, *driver.Snapshot, error) {
	m, err := findManifest()
	if err != nil {
		return nil, nil, err
	}
	entry, err := resolveEntry(args, m)
	if err != nil {
		return nil, nil, err
	}
	w := driver.NewWorkspace(buildOptions(cmd, m))
	snap, err := w.Load(context.Background(), entry)
	if err != nil {
		return nil, nil, err
	}
	return w, snap, nil
}
