package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/redtrace/pkg/query"
	"github.com/harun/redtrace/pkg/trace"
)

var (
	viewApp     string
	viewSpan    string
	viewService string
	viewJob     string
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print stored trace records",
	Long: `Print the trace records stored for an application, oldest first.
At most one of --span, --service and --job may be given; without a
filter every record is printed.`,
	RunE: runView,
}

func init() {
	viewCmd.Flags().StringVar(&viewApp, "app", "", "application name (defaults to the configured app)")
	viewCmd.Flags().StringVar(&viewSpan, "span", "", "filter by exact span name")
	viewCmd.Flags().StringVar(&viewService, "service", "", "filter by exact service name")
	viewCmd.Flags().StringVar(&viewJob, "job", "", "filter by exact job identifier")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	filters := 0
	for _, f := range []string{viewSpan, viewService, viewJob} {
		if f != "" {
			filters++
		}
	}
	if filters > 1 {
		return fmt.Errorf("at most one of --span, --service and --job may be given")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app := viewApp
	if app == "" {
		app = cfg.App
	}

	ctx := cmd.Context()
	mgr, err := newManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close() }()

	viewer := query.NewViewer(mgr)

	var records []trace.Record
	switch {
	case viewSpan != "":
		records, err = viewer.BySpanName(ctx, app, viewSpan)
	case viewService != "":
		records, err = viewer.ByServiceName(ctx, app, viewService)
	case viewJob != "":
		records, err = viewer.ByJobID(ctx, app, viewJob)
	default:
		records, err = viewer.FetchAll(ctx, app)
	}
	if err != nil {
		return err
	}

	for _, rec := range records {
		fmt.Fprintln(cmd.OutOrStdout(), rec.FormatLine())
	}
	return nil
}
