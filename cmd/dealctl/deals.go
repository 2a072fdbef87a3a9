package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fareglitch/internal/application"
	"fareglitch/internal/domain/entity"
)

func feedCmd() *cobra.Command {
	var (
		token string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the deal feed as a viewer sees it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *application.App) error {
				viewer, err := app.Feed.Viewer(ctx, token)
				if err != nil {
					return err
				}

				teasers, err := app.Feed.Feed(ctx, viewer, limit)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0) //nolint:mnd
				fmt.Fprintln(w, "DEAL\tHEADLINE\tSAVINGS\tPUBLISHED")

				for _, t := range teasers {
					fmt.Fprintf(w, "%s\t%s\t%s%%\t%s\n", t.DealNumber, t.Headline, t.SavingsPercent, formatTime(t.PublishedAt))
				}

				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "Subscriber access token")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum deals")

	return cmd
}

func dealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deal",
		Short: "Inspect and moderate deals",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show number",
		Short: "Show a deal with its booking link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *application.App) error {
				viewer, err := app.Feed.Viewer(ctx, "")
				if err != nil {
					return err
				}

				deal, err := app.Feed.Lookup(ctx, args[0], viewer)
				if err != nil {
					return err
				}

				printDeal(deal)

				return nil
			})
		},
	})

	cmd.AddCommand(dealMutation("publish", "Publish a validated deal", func(app *application.App) func(context.Context, string) (entity.Deal, error) {
		return app.Pipeline.PublishDeal
	}))
	cmd.AddCommand(dealMutation("cancel", "Pull a published deal", func(app *application.App) func(context.Context, string) (entity.Deal, error) {
		return app.Pipeline.CancelDeal
	}))
	cmd.AddCommand(&cobra.Command{
		Use:   "recheck number",
		Short: "Re-price a published deal live and pull it if the fare is gone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *application.App) error {
				deal, result, err := app.Pipeline.RecheckDeal(ctx, args[0])
				if err != nil {
					return err
				}

				if result.Offer != nil {
					fmt.Printf("live %s %s on %s\n", result.Offer.Price.StringFixed(2), result.Offer.Currency, result.Offer.Airline)
				}

				fmt.Printf("holds: %t\n", result.Holds)
				printDeal(deal)

				return nil
			})
		},
	})

	return cmd
}

func dealMutation(
	use, short string,
	op func(app *application.App) func(context.Context, string) (entity.Deal, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " number",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *application.App) error {
				deal, err := op(app)(ctx, args[0])
				if err != nil {
					return err
				}

				printDeal(deal)

				return nil
			})
		},
	}
}

func printDeal(d entity.Deal) {
	fmt.Printf("%s %s (%s)\n", d.DealNumber, d.TeaserHeadline(), d.Status)
	fmt.Printf("price %s %s, normally %s, saves %s%%\n",
		d.MistakePrice.StringFixed(2), d.Currency, d.NormalPrice.StringFixed(2), d.SavingsPercent())
	fmt.Printf("published %s, expires %s\n", formatTime(d.PublishedAt), formatTime(d.ExpiresAt))
	fmt.Printf("unlocks %d, revenue %s\n", d.TotalUnlocks, d.TotalRevenue.StringFixed(2))
	fmt.Println(d.BookingLink)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return t.Local().Format(time.DateTime)
}
