package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/extvars/internal/engine"
	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Variable string // optional - filter to one variable id
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the saved mutation journal",
		Long: `Print the journal of registry mutations saved for the project, in
logical clock order.

Examples:
  extvars history
  extvars history --var EV_0003 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Variable, "var", "", "only entries for this variable id")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	ctx := cmd.Context()
	out := newFormatter(cmd, opts.RootOptions)

	st, set, err := openStore(opts.RootOptions)
	if err != nil {
		return out.Fail(asExit(err))
	}
	defer st.Close()

	var entries []ir.JournalEntry
	var rerr error
	if opts.Variable != "" {
		entries, rerr = st.ReadVariableJournal(ctx, set.Project, ir.VarID(opts.Variable))
	} else {
		entries, rerr = st.ReadJournal(ctx, set.Project)
	}
	if rerr != nil {
		return out.Fail(WrapExitError(ExitCommandError, "failed to read journal", rerr))
	}
	if entries == nil {
		entries = []ir.JournalEntry{}
	}

	return out.Emit(entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintf(w, "No journal entries for project %s.\n", set.Project)
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tOP\tID\tCATEGORY\tNAME\tSESSION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.Seq, e.Op, e.VarID, e.Category, e.Name, e.Session)
		}
		tw.Flush()
	})
}

// ReplayResult is the output of the replay command.
type ReplayResult struct {
	Project       string `json:"project"`
	Entries       int    `json:"entries"`
	Variables     int    `json:"variables"`
	SavedDigest   string `json:"saved_digest"`
	ReplayDigest  string `json:"replay_digest"`
	Deterministic bool   `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the registry from the journal and verify it",
		Long: `Replay the saved journal from an empty registry and compare the result's
digest with the saved shadow registry.

Exit codes:
  0 - Replayed registry matches the saved one
  1 - Digest mismatch or the journal does not apply
  2 - Command error (database not found, etc.)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			st, set, err := openStore(rootOpts)
			if err != nil {
				return out.Fail(asExit(err))
			}
			defer st.Close()

			result, err := replayProject(cmd.Context(), st, set.Project)
			if err != nil {
				return out.Fail(asExit(err))
			}
			if err := out.Emit(result, func(w io.Writer) { printReplay(w, result) }); err != nil {
				return err
			}
			if !result.Deterministic {
				return NewExitError(ExitFailure, "replayed registry differs from the saved one")
			}
			return nil
		},
	}
}

func replayProject(ctx context.Context, st *store.Store, project string) (ReplayResult, error) {
	result := ReplayResult{Project: project}

	saved, found, err := st.GetProject(ctx, project)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "failed to read project", err)
	}
	if !found {
		return result, NewExitError(ExitCommandError, fmt.Sprintf("project %q has not been saved", project))
	}
	result.SavedDigest = saved.Digest

	entries, err := st.ReadJournal(ctx, project)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	result.Entries = len(entries)

	reg, err := engine.Replay(entries)
	if err != nil {
		return result, WrapExitError(ExitFailure, "journal does not replay", err)
	}
	result.Variables = reg.Len()
	result.ReplayDigest, err = ir.RegistryDigest(reg)
	if err != nil {
		return result, WrapExitError(ExitCommandError, "failed to digest replayed registry", err)
	}
	result.Deterministic = result.ReplayDigest == result.SavedDigest
	return result, nil
}

func printReplay(w io.Writer, r ReplayResult) {
	fmt.Fprintf(w, "Project:   %s\n", r.Project)
	fmt.Fprintf(w, "Entries:   %d\n", r.Entries)
	fmt.Fprintf(w, "Variables: %d\n", r.Variables)
	if r.Deterministic {
		fmt.Fprintf(w, "Digest:    %s (match)\n", r.ReplayDigest)
		return
	}
	fmt.Fprintf(w, "Saved:     %s\n", r.SavedDigest)
	fmt.Fprintf(w, "Replayed:  %s\n", r.ReplayDigest)
	fmt.Fprintln(w, "MISMATCH")
}

// openStore opens the configured database without a workspace or engine.
func openStore(opts *RootOptions) (*store.Store, settings, error) {
	set, err := resolveSettings(opts)
	if err != nil {
		return nil, set, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	st, err := store.Open(set.Database)
	if err != nil {
		return nil, set, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, set, nil
}
