package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/usage"
	"github.com/roach88/extvars/internal/workspace"
)

// UsageRow is one variable and its usage count.
type UsageRow struct {
	ID     ir.VarID `json:"id"`
	Usages int      `json:"usages"`
}

// NewUsageCommand creates the usage command.
func NewUsageCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "usage [id]",
		Short: "Count blocks referencing variables",
		Long: `Count the blocks that reference a variable. A reference nested inside
another referencing block of the same variable is not counted again.

Without an id, every variable in the shadow registry is counted in one
scan of the workspace.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return out.Fail(asExit(err))
			}
			defer sess.Close()

			var warnings []string
			var rows []UsageRow
			if len(args) == 1 {
				id := ir.VarID(args[0])
				n, err := sess.engine.UsageCount(id)
				if err != nil {
					warnings = append(warnings, err.Error())
				}
				rows = []UsageRow{{ID: id, Usages: n}}
			} else {
				counts, err := sess.engine.UsageCounts()
				if err != nil {
					warnings = append(warnings, err.Error())
				}
				for id, n := range counts {
					rows = append(rows, UsageRow{ID: id, Usages: n})
				}
				slices.SortFunc(rows, func(a, b UsageRow) int { return strings.Compare(string(a.ID), string(b.ID)) })
			}

			return out.Emit(rows, func(w io.Writer) {
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%d\n", r.ID, r.Usages)
				}
			}, warnings...)
		},
	}
}

// NewDetailsCommand creates the details command.
func NewDetailsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "details <id>",
		Short: "Show one variable with its referencing blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			sess, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return out.Fail(asExit(err))
			}
			defer sess.Close()

			var warnings []string
			d, err := sess.engine.Details(ir.VarID(args[0]))
			if err != nil {
				if d.Record.ID == "" {
					return out.Fail(engineExit("details failed", err))
				}
				warnings = append(warnings, err.Error())
			}

			return out.Emit(d, func(w io.Writer) {
				fmt.Fprintf(w, "ID:        %s\n", d.Record.ID)
				fmt.Fprintf(w, "Name:      %s\n", d.Record.Name)
				fmt.Fprintf(w, "Category:  %s\n", d.Record.Category)
				fmt.Fprintf(w, "In host:   %t\n", d.InLive)
				fmt.Fprintf(w, "Usages:    %d\n", d.Usages)
				if len(d.References) > 0 {
					fmt.Fprintf(w, "Blocks:    %s\n", strings.Join(d.References, ", "))
				}
			}, warnings...)
		},
	}
}

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Root string
}

// CheckFile is the analysis of one workspace document.
type CheckFile struct {
	Path      string               `json:"path"`
	Error     string               `json:"error,omitempty"`
	Variables int                  `json:"variables"`
	Blocks    int                  `json:"blocks"`
	Usages    map[ir.VarID]int     `json:"usages,omitempty"`
	Dangling  []string             `json:"dangling,omitempty"` // block ids referencing unknown variables
	Cycles    []usage.CycleWarning `json:"cycles,omitempty"`
}

// OK reports whether the file loaded and has no dangling references or cycles.
func (c CheckFile) OK() bool {
	return c.Error == "" && len(c.Dangling) == 0 && len(c.Cycles) == 0
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <pattern>...",
		Short: "Analyze workspace documents matching glob patterns",
		Long: `Load every workspace document under --root matching the patterns ("**"
crosses directories) and report usage counts, blocks referencing unknown
variables, and block cycles. No database is opened.

Exit codes:
  0 - All documents are clean
  1 - At least one document failed to load or has findings
  2 - Command error (bad pattern, unreadable root)

Examples:
  extvars check "**/*.yaml"
  extvars check --root testdata "levels/*.cue"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", ".", "directory patterns are matched under")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions, patterns []string) error {
	out := newFormatter(cmd, opts.RootOptions)

	var paths []string
	for _, p := range patterns {
		matches, err := workspace.Glob(opts.Root, p)
		if err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "invalid pattern", err))
		}
		for _, m := range matches {
			if !slices.Contains(paths, m) {
				paths = append(paths, m)
			}
		}
	}
	slices.Sort(paths)

	results := make([]CheckFile, 0, len(paths))
	clean := true
	for _, path := range paths {
		res := checkFile(path)
		clean = clean && res.OK()
		results = append(results, res)
	}

	if err := out.Emit(results, func(w io.Writer) { printCheck(w, results) }); err != nil {
		return err
	}
	if !clean {
		return NewExitError(ExitFailure, "check found problems")
	}
	return nil
}

func checkFile(path string) CheckFile {
	res := CheckFile{Path: path}
	doc, err := workspace.Load(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	ws, err := workspace.Build(doc)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Variables = len(doc.Variables)
	res.Blocks = len(doc.Blocks)

	known := make(map[ir.VarID]bool, len(doc.Variables))
	for _, v := range doc.Variables {
		known[ir.VarID(v.ID)] = true
	}
	for _, b := range doc.Blocks {
		if b.Variable != "" && !known[ir.VarID(b.Variable)] {
			res.Dangling = append(res.Dangling, b.ID)
		}
	}

	roots, err := ws.AllRootNodes()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	snap := usage.Capture(roots)
	counts := snap.CountAll()
	res.Usages = make(map[ir.VarID]int, len(doc.Variables))
	for _, v := range doc.Variables {
		res.Usages[ir.VarID(v.ID)] = counts[ir.VarID(v.ID)]
	}
	res.Cycles = snap.Cycles()
	return res
}

func printCheck(w io.Writer, results []CheckFile) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No workspace documents matched.")
		return
	}
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s\n", status, r.Path)
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
			continue
		}
		fmt.Fprintf(w, "  %d variable(s), %d block(s)\n", r.Variables, r.Blocks)
		ids := make([]ir.VarID, 0, len(r.Usages))
		for id := range r.Usages {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, id := range ids {
			fmt.Fprintf(tw, "  %s\t%d\n", id, r.Usages[id])
		}
		tw.Flush()
		for _, b := range r.Dangling {
			fmt.Fprintf(w, "  block %s references an unknown variable\n", b)
		}
		for _, c := range r.Cycles {
			fmt.Fprintf(w, "  %s\n", c.Message)
		}
	}
}
