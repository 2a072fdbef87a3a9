package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fareglitch/internal/application"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
)

func subscriberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriber",
		Short: "Manage subscribers",
	}

	var (
		email string
		phone string
		typ   string
		days  int
	)

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a subscriber and print its access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			subType, err := value.ParseSubscriptionType(typ)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, app *application.App) error {
				sub := entity.NewSubscriber(email, phone, subType, time.Duration(days)*24*time.Hour, time.Now())

				if err := app.Subscribers.Create(ctx, sub); err != nil {
					return err
				}

				fmt.Printf("subscriber %s (%s)\n", sub.ID, sub.Type)
				fmt.Printf("token %s\n", sub.AccessToken)

				if sub.ExpiresAt != nil {
					fmt.Printf("expires %s\n", formatTime(sub.ExpiresAt))
				}

				return nil
			})
		},
	}

	add.Flags().StringVar(&email, "email", "", "Email address")
	add.Flags().StringVar(&phone, "phone", "", "Phone number in E.164")
	add.Flags().StringVar(&typ, "type", string(value.SubscriptionSMSMonthly), "free, sms_monthly or pay_per_alert")
	add.Flags().IntVar(&days, "days", 30, "Subscription length, 0 for no expiry") //nolint:mnd

	cmd.AddCommand(add)

	return cmd
}
