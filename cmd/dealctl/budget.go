package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fareglitch/internal/application"
)

func budgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budget",
		Short: "Show provider call counters against the caps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, app *application.App) error {
				state := app.Budget.Snapshot()
				limits := app.Budget.Limits()

				fmt.Printf("today %s: %d / %s\n", state.DayMarker, state.CallsToday, capString(limits.Daily))
				fmt.Printf("month %s: %d / %s\n", state.MonthMarker, state.CallsThisMonth, capString(limits.Monthly))
				fmt.Printf("within budget: %t\n", app.Budget.WithinBudget())

				return nil
			})
		},
	}
}

func capString(n int) string {
	if n <= 0 {
		return "unlimited"
	}

	return fmt.Sprint(n)
}
