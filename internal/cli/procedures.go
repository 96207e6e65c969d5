package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/shareserver/internal/pictures"
)

// NewProceduresCommand creates the procedures command.
func NewProceduresCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "procedures",
		Short: "List registered procedures and their privileges",
		Long: `Print every Service.procedure the server registers together with the
minimum privilege a caller needs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcedures(rootOpts, cmd)
		},
	}
}

func runProcedures(opts *RootOptions, cmd *cobra.Command) error {
	// The table does not depend on stores; a nil asset store is never called.
	table, err := pictures.Build(nil, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build procedure table", err)
	}
	procs := pictures.Describe(table)

	return newPrinter(opts, cmd).ok(procs, func(w io.Writer) error {
		return writeProcedureTable(w, procs)
	})
}

func writeProcedureTable(w io.Writer, procs []pictures.ProcedureInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPRIVILEGE")
	for _, p := range procs {
		fmt.Fprintf(tw, "%s.%s\t%s\n", p.Service, p.Procedure, p.Privilege)
	}
	return tw.Flush()
}
