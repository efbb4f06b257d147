package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/extvars/internal/engine"
	"github.com/roach88/extvars/internal/ir"
)

// CategoryInfo is one row of the categories command.
type CategoryInfo struct {
	Category ir.Category `json:"category"`
	Count    int         `json:"count"`
	Capacity int         `json:"capacity"` // 0 = unlimited
}

// VariableInfo is one row of the list command.
type VariableInfo struct {
	ir.VariableRecord
	Usages int `json:"usages"`
}

// NewCategoriesCommand creates the categories command.
func NewCategoriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List variable categories with their fill level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return out.Fail(asExit(err))
			}
			defer sess.Close()

			var rows []CategoryInfo
			for _, cat := range sess.engine.ListCategories() {
				rows = append(rows, CategoryInfo{
					Category: cat,
					Count:    sess.engine.Count(cat),
					Capacity: sess.engine.Capacity(),
				})
			}
			return out.Emit(rows, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				for _, r := range rows {
					limit := "unlimited"
					if r.Capacity > 0 {
						limit = fmt.Sprint(r.Capacity)
					}
					fmt.Fprintf(tw, "%s\t%d/%s\n", r.Category, r.Count, limit)
				}
				tw.Flush()
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [category]",
		Short: "List variables with usage counts",
		Long: `List the variables of one category, or of every category in catalog
order, with the number of blocks referencing each one.

Examples:
  extvars list
  extvars list Player --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return out.Fail(asExit(err))
			}
			defer sess.Close()

			cats := sess.engine.ListCategories()
			if len(args) == 1 {
				cats = []ir.Category{ir.Category(args[0])}
			}

			var warnings []string
			counts, err := sess.engine.UsageCounts()
			if err != nil {
				warnings = append(warnings, err.Error())
			}

			rows := []VariableInfo{}
			for _, cat := range cats {
				recs, err := sess.engine.ListVariables(cat)
				if err != nil {
					return out.Fail(engineExit("list failed", err))
				}
				for _, rec := range recs {
					rows = append(rows, VariableInfo{VariableRecord: rec, Usages: counts[rec.ID]})
				}
			}

			return out.Emit(rows, func(w io.Writer) {
				if len(rows) == 0 {
					fmt.Fprintln(w, "No variables.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCATEGORY\tNAME\tUSAGES")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.ID, r.Category, r.Name, r.Usages)
				}
				tw.Flush()
			}, warnings...)
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <category> <name>",
		Short: "Create a variable",
		Long: `Create a variable in a category. The id is allocated past every id
held by the shadow registry or the workspace.

Examples:
  extvars add Global score
  extvars add Vehicle "top speed"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, rootOpts, func(sess *session) (any, string, error) {
				rec, err := sess.engine.Add(ir.Category(args[0]), args[1])
				if err != nil {
					return nil, "", engineExit("add failed", err)
				}
				return rec, fmt.Sprintf("Added %s", rec), nil
			})
		},
	}
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a variable, keeping its id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, rootOpts, func(sess *session) (any, string, error) {
				rec, err := sess.engine.Rename(ir.VarID(args[0]), args[1])
				if err != nil {
					return nil, "", engineExit("rename failed", err)
				}
				return rec, fmt.Sprintf("Renamed %s", rec), nil
			})
		},
	}
}

// RemoveOptions holds flags for the remove command.
type RemoveOptions struct {
	*RootOptions
	Yes bool
}

// RemoveResult is the output of the remove command.
type RemoveResult struct {
	Record  *ir.VariableRecord `json:"record,omitempty"`
	Removed bool               `json:"removed"`
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a variable",
		Long: `Delete a variable from the shadow registry and the workspace.

Blocks referencing the variable are left in place, so removal asks for
confirmation: without --yes the command prints the usage count and exits 1.
Removing an unknown id succeeds and changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ir.VarID(args[0])
			if !opts.Yes {
				return confirmRemove(cmd, opts, id)
			}
			return mutate(cmd, rootOpts, func(sess *session) (any, string, error) {
				rec, removed, err := sess.engine.Remove(id)
				if err != nil {
					return nil, "", engineExit("remove failed", err)
				}
				if !removed {
					return RemoveResult{}, fmt.Sprintf("No variable %s.", id), nil
				}
				return RemoveResult{Record: &rec, Removed: true}, fmt.Sprintf("Removed %s", rec), nil
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm deletion")

	return cmd
}

// confirmRemove prints the deletion warning without changing anything.
func confirmRemove(cmd *cobra.Command, opts *RemoveOptions, id ir.VarID) error {
	out := newFormatter(cmd, opts.RootOptions)
	sess, err := openSession(cmd.Context(), opts.RootOptions)
	if err != nil {
		return out.Fail(asExit(err))
	}
	defer sess.Close()

	d, err := sess.engine.Details(id)
	if engine.IsNotFound(err) {
		return out.Emit(RemoveResult{}, func(w io.Writer) { fmt.Fprintf(w, "No variable %s.\n", id) })
	}
	if err != nil && !engine.IsHostUnavailable(err) {
		return out.Fail(engineExit("remove failed", err))
	}
	return out.Fail(NewExitError(ExitFailure, fmt.Sprintf(
		"deleting %s may break blocks referencing it (%d usage(s)); re-run with --yes to confirm",
		d.Record, d.Usages)))
}

// mutate opens a session, applies fn and commits. fn returns the JSON data
// and the text line to print.
func mutate(cmd *cobra.Command, rootOpts *RootOptions, fn func(*session) (any, string, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := newFormatter(cmd, rootOpts)
	sess, err := openSession(ctx, rootOpts)
	if err != nil {
		return out.Fail(asExit(err))
	}
	defer sess.Close()

	data, line, err := fn(sess)
	if err != nil {
		return out.Fail(asExit(err))
	}
	if err := sess.commit(ctx); err != nil {
		return out.Fail(asExit(err))
	}
	return out.Emit(data, func(w io.Writer) { fmt.Fprintln(w, line) })
}

// asExit passes ExitErrors through and maps anything else.
func asExit(err error) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return engineExit("command failed", err)
}
