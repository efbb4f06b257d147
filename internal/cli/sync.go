package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/extvars/internal/engine"
	"github.com/roach88/extvars/internal/reconcile"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Adopt workspace-only variables and push shadow-only ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reconcileCommand(cmd, rootOpts, "sync", func(sess *session) (reconcile.Report, error) {
				report, err := sess.engine.Sync()
				report = mergeOpened(sess.opened, report)
				return report, err
			})
		},
	}
}

// NewResyncCommand creates the resync command.
func NewResyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Rebuild the workspace variables from the shadow registry",
		Long: `Delete every variable the workspace holds and recreate the shadow
registry's records in catalog order. Use when the workspace has drifted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reconcileCommand(cmd, rootOpts, "resync", func(sess *session) (reconcile.Report, error) {
				return sess.engine.Resync()
			})
		},
	}
}

// NewAdoptCommand creates the adopt command.
func NewAdoptCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "adopt",
		Short: "Import workspace variables the shadow registry lacks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reconcileCommand(cmd, rootOpts, "adopt", func(sess *session) (reconcile.Report, error) {
				report, err := sess.engine.Adopt()
				report = mergeOpened(sess.opened, report)
				return report, err
			})
		},
	}
}

// mergeOpened folds the adoption done while opening into a later report, so
// the command shows what it changed even though Open already did the work.
func mergeOpened(opened, report reconcile.Report) reconcile.Report {
	merged := reconcile.Report{
		Adopted: slices.Clone(opened.Adopted),
		Created: slices.Clone(opened.Created),
	}
	merged.Merge(report)
	return merged
}

func reconcileCommand(cmd *cobra.Command, rootOpts *RootOptions, op string, fn func(*session) (reconcile.Report, error)) error {
	ctx := cmd.Context()
	out := newFormatter(cmd, rootOpts)
	sess, err := openSession(ctx, rootOpts)
	if err != nil {
		return out.Fail(asExit(err))
	}
	defer sess.Close()

	report, err := fn(sess)
	if err != nil && !engine.IsPartialReconciliation(err) {
		return out.Fail(engineExit(op+" failed", err))
	}
	if cerr := sess.commit(ctx); cerr != nil {
		return out.Fail(asExit(cerr))
	}

	var warnings []string
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	if err := out.Emit(report, func(w io.Writer) { printReport(w, op, report) }, warnings...); err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d record(s) not reconciled", op, len(report.Failed)))
	}
	return nil
}

func printReport(w io.Writer, op string, r reconcile.Report) {
	if !r.Changed() && len(r.Failed) == 0 {
		fmt.Fprintf(w, "%s: nothing to do\n", op)
		return
	}
	for _, rec := range r.Adopted {
		fmt.Fprintf(w, "adopted  %s\n", rec)
	}
	for _, rec := range r.Deleted {
		fmt.Fprintf(w, "deleted  %s\n", rec)
	}
	for _, rec := range r.Created {
		fmt.Fprintf(w, "created  %s\n", rec)
	}
	for _, rec := range r.Renamed {
		fmt.Fprintf(w, "renamed  %s\n", rec)
	}
	for _, f := range r.Failed {
		fmt.Fprintf(w, "failed   %s (%s: %s)\n", f.Record, f.Action, f.Reason)
	}
}
