package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/extvars/internal/config"
	"github.com/roach88/extvars/internal/store"
	"github.com/roach88/extvars/internal/workspace"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Dir   string
	Force bool
}

// InitResult is the output of the init command.
type InitResult struct {
	Config    string `json:"config"`
	Database  string `json:"database"`
	Project   string `json:"project"`
	Workspace string `json:"workspace,omitempty"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create extvars.yaml, the database and an empty workspace",
		Long: `Write an extvars.yaml config in --dir, create its SQLite database and,
when --workspace names a missing document, an empty workspace.

The project key is --project when given, otherwise a fresh UUIDv7.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "directory to initialize")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	out := newFormatter(cmd, opts.RootOptions)

	cfgPath := filepath.Join(opts.Dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !opts.Force {
		return out.Fail(NewExitError(ExitFailure, fmt.Sprintf("%s already exists (use --force to overwrite)", cfgPath)))
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return out.Fail(WrapExitError(ExitCommandError, "failed to stat config", err))
	}

	project := opts.Project
	if project == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "failed to generate project key", err))
		}
		project = id.String()
	}

	cfg := &config.Config{
		Database:  opts.Database,
		Project:   project,
		Workspace: opts.Workspace,
	}
	if cfg.Database == "" {
		cfg.Database = config.DefaultDatabase
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to create directory", err))
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to write config", err))
	}

	dbPath := resolveIn(opts.Dir, cfg.Database)
	st, err := store.Open(dbPath)
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to create database", err))
	}
	if err := st.Close(); err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to close database", err))
	}

	result := InitResult{Config: cfgPath, Database: dbPath, Project: project}
	if cfg.Workspace != "" {
		wsPath := resolveIn(opts.Dir, cfg.Workspace)
		if _, err := os.Stat(wsPath); errors.Is(err, os.ErrNotExist) {
			if err := workspace.Save(wsPath, &workspace.Document{}); err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "failed to create workspace", err))
			}
		}
		result.Workspace = wsPath
	}

	return out.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "Initialized project %s\n", result.Project)
		fmt.Fprintf(w, "  config:    %s\n", result.Config)
		fmt.Fprintf(w, "  database:  %s\n", result.Database)
		if result.Workspace != "" {
			fmt.Fprintf(w, "  workspace: %s\n", result.Workspace)
		}
	})
}

func resolveIn(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
