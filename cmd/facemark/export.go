package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/facemark/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the attendance ledger location",
	Long: `Export prints the path of the attendance spreadsheet. With --print the
recorded rows are listed as well.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Bool("print", false, "List the recorded rows")
}

// export needs no detector, so it works without the embedding backend.
func runExport(cmd *cobra.Command, args []string) error {
	printRows := mustGetBool(cmd, "print")

	_, st, err := openStore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	path, err := st.Ledger().Export()
	if err != nil {
		fmt.Fprintln(out, app.ExportMessage(err))
		return errReported
	}
	fmt.Fprintln(out, path)

	if !printRows {
		return nil
	}

	records, err := st.Ledger().Records()
	if err != nil {
		return fmt.Errorf("failed to read attendance: %w", err)
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s\t%s\t%s\n", r.Name, r.Date, r.Time)
	}
	return nil
}
