package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/reconcile"
	"github.com/roach88/extvars/internal/snapshot"
)

// ExportResult is the output of the export command.
type ExportResult struct {
	Path      string `json:"path"`
	Project   string `json:"project"`
	Digest    string `json:"digest"`
	Variables int    `json:"variables"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write the saved shadow registry to a snapshot file",
		Long: `Write the saved shadow registry of the project to a compressed,
checksummed snapshot file. The workspace is not consulted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			st, set, err := openStore(rootOpts)
			if err != nil {
				return out.Fail(asExit(err))
			}
			defer st.Close()

			reg, found, err := st.Load(cmd.Context(), set.Project)
			if err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "failed to load shadow registry", err))
			}
			if !found {
				reg = ir.Registry{}
			}
			doc, err := snapshot.New(set.Project, reg)
			if err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "failed to build snapshot", err))
			}
			if err := snapshot.WriteFile(args[0], doc); err != nil {
				return out.Fail(WrapExitError(ExitCommandError, "failed to write snapshot", err))
			}

			result := ExportResult{Path: args[0], Project: doc.Project, Digest: doc.Digest, Variables: len(doc.Variables)}
			return out.Emit(result, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %d variable(s) of %s to %s\n", result.Variables, result.Project, result.Path)
			})
		},
	}
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a snapshot file into the shadow registry",
		Long: `Merge the records of a snapshot into the shadow registry and push them
to the workspace. Records whose id already exists are skipped; records
whose name collides are reported as failures.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := snapshot.ReadFile(args[0])
			if err != nil {
				return newFormatter(cmd, rootOpts).Fail(WrapExitError(ExitCommandError, "failed to read snapshot", err))
			}
			return reconcileCommand(cmd, rootOpts, "import", func(sess *session) (reconcile.Report, error) {
				return sess.engine.Merge(doc.Registry())
			})
		},
	}
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of snapshot documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := snapshot.Schema()
			if err != nil {
				return newFormatter(cmd, rootOpts).Fail(WrapExitError(ExitCommandError, "failed to build schema", err))
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
