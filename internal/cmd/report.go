package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liwei-chen/wfgate/internal/report"
)

var reportPlain bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the delegation report for the current change",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportPlain, "plain", false, "single-line summary without styling")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	rt := newRuntime("")
	defer rt.Close()

	st := rt.store.Load()
	r := report.Build(st, rt.events.ReadViolations(), rt.events.Pending())

	if reportPlain {
		fmt.Println(r.Summary())
		return nil
	}
	fmt.Print(r.Render())
	return nil
}
