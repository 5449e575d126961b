package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/csvio"
	"github.com/padraicbc/coreapi/store"
)

// opener connects to the store lazily so --help works without a database.
type opener func(ctx context.Context) (store.Store, func(), error)

func newRootCmd(open opener, log *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "coretool",
		Short:         "Import and export core-logging CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCmd(open, log), newExportCmd(open))
	return root
}

func newImportCmd(open opener, log *zap.Logger) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load intervals, runs or drill holes from a CSV file",
		Long: `Each row is committed on its own. Rows that fail are reported
and skipped; the command exits non-zero if any row failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := csvio.NewImporter(st, log).Import(cmd.Context(), f, csvio.Kind(kind))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range res.Errors {
				fmt.Fprintln(out, e)
			}
			fmt.Fprintf(out, "imported %s rows, %s failed\n",
				humanize.Comma(int64(res.ImportedCount)), humanize.Comma(int64(len(res.Errors))))
			if len(res.Errors) > 0 {
				return fmt.Errorf("%d rows failed", len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(csvio.Intervals), "record type: intervals, runs or drill_holes")
	return cmd
}

func newExportCmd(open opener) *cobra.Command {
	var (
		kind, output string
		sc           store.Scope
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write intervals, runs, drill holes, QA/QC items or Leapfrog data as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if output == "" {
				return csvio.Export(cmd.Context(), st, cmd.OutOrStdout(), csvio.Kind(kind), sc)
			}
			if err := exportFile(cmd.Context(), st, output, csvio.Kind(kind), sc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s at %s\n", output, time.Now().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(csvio.Intervals), "record type: intervals, runs, drill_holes, qaqc or leapfrog")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&sc.DrillHoleID, "hole", 0, "only records of this drill hole id")
	cmd.Flags().StringVar(&sc.ProjectName, "project", "", "only records whose project name contains this text")
	return cmd
}

// exportFile writes the export to path. A failed close is reported since the
// last buffered rows may not have reached the file.
func exportFile(ctx context.Context, st store.Store, path string, kind csvio.Kind, sc store.Scope) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csvio.Export(ctx, st, f, kind, sc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
