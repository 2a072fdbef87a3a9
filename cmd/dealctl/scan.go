package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fareglitch/internal/application"
	"fareglitch/internal/domain/service/pipeline"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [origin...]",
		Short: "Run one scan inline; without origins the next rotation batch is scanned",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *application.App) error {
				result, err := app.Scheduler.TryScan(ctx, args)
				printScanResult(result)

				return err
			})
		},
	}
}

func enqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue origin...",
		Short: "Queue a scan for a worker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *application.App) error {
				if app.Producer == nil {
					return fmt.Errorf("job queue is disabled, set QUEUE_ENABLED=true")
				}

				taskID, err := app.Producer.EnqueueScan(ctx, args)
				if err != nil {
					return err
				}

				fmt.Printf("queued %s\n", taskID)

				return nil
			})
		},
	}
}

func printScanResult(r pipeline.ScanResult) {
	if r.ScanID == "" {
		return
	}

	fmt.Printf("scan %s %s origins=%s\n", r.ScanID, r.Status(), strings.Join(r.Origins, ","))
	fmt.Printf("routes=%d anomalies=%d validated=%d published=%d conflicts=%d errors=%d api-calls=%d\n",
		r.RoutesChecked, r.AnomaliesFound, r.DealsValidated, r.DealsPublished, r.Conflicts, r.Errors, r.APICalls)

	if len(r.Deals) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd
	fmt.Fprintln(w, "DEAL\tROUTE\tTIER\tSTATUS\tPRICE\tNORMAL")

	for _, d := range r.Deals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s %s\t%s\n",
			d.DealNumber, d.Route, d.Tier, d.Status, d.MistakePrice.StringFixed(2), d.Currency, d.NormalPrice.StringFixed(2))
	}

	_ = w.Flush()
}
