package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/extvars/internal/config"
	"github.com/roach88/extvars/internal/engine"
	"github.com/roach88/extvars/internal/host/memhost"
	"github.com/roach88/extvars/internal/reconcile"
	"github.com/roach88/extvars/internal/store"
	"github.com/roach88/extvars/internal/workspace"
)

// settings are the global options after merging flags over the config file.
type settings struct {
	Database  string
	Workspace string
	Project   string
	Capacity  int
	Refresh   bool
}

func resolveSettings(opts *RootOptions) (settings, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return settings{}, err
	}

	s := settings{
		Database:  cfg.DatabasePath(),
		Workspace: cfg.Workspace,
		Project:   cfg.Project,
		Capacity:  cfg.CapacityPerCategory(),
		Refresh:   cfg.RefreshOnRename(),
	}
	if opts.Database != "" {
		s.Database = opts.Database
	}
	if opts.Workspace != "" {
		s.Workspace = opts.Workspace
	}
	if opts.Project != "" {
		s.Project = opts.Project
	}
	if s.Project == "" {
		s.Project = engine.DefaultProject
	}
	return s, nil
}

// session is one engine over the configured database and workspace.
type session struct {
	settings
	store  *store.Store
	host   *memhost.Workspace
	engine *engine.Engine

	// opened is the reconciliation report produced while opening.
	opened reconcile.Report
}

// openSession resolves settings, opens the database, loads the workspace
// (an empty in-memory host when none is configured) and opens the engine.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	set, err := resolveSettings(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	ws := memhost.New()
	if set.Workspace != "" {
		doc, err := workspace.Load(set.Workspace)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load workspace", err)
		}
		ws, err = workspace.Build(doc)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid workspace", err)
		}
	}

	st, err := store.Open(set.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	engOpts := []engine.Option{
		engine.WithPersister(st, set.Project),
		engine.WithCapacity(set.Capacity),
	}
	if !set.Refresh {
		engOpts = append(engOpts, engine.WithRefreshHook(nil))
	}
	eng := engine.New(ws, engOpts...)

	report, err := eng.Open(ctx)
	if err != nil {
		st.Close()
		return nil, engineExit("failed to open session", err)
	}

	return &session{
		settings: set,
		store:    st,
		host:     ws,
		engine:   eng,
		opened:   report,
	}, nil
}

// commit saves the shadow registry and journal, then writes the host state
// back to the workspace document. CUE documents are never rewritten.
func (s *session) commit(ctx context.Context) error {
	if err := s.engine.Save(ctx); err != nil {
		return engineExit("failed to save", err)
	}
	if s.Workspace == "" {
		return nil
	}
	format, err := workspace.FormatOf(s.Workspace)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save workspace", err)
	}
	if format == workspace.FormatCUE {
		slog.Warn("workspace is CUE and read-only, host changes not written", "path", s.Workspace)
		return nil
	}
	if err := workspace.Save(s.Workspace, workspace.FromWorkspace(s.host)); err != nil {
		return WrapExitError(ExitCommandError, "failed to save workspace", err)
	}
	return nil
}

func (s *session) Close() error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
