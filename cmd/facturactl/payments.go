package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/facturante/facturante/internal/app"
	"github.com/facturante/facturante/internal/masterdata"
	"github.com/facturante/facturante/internal/masterdata/clients"
	"github.com/facturante/facturante/internal/masterdata/products"
	"github.com/facturante/facturante/internal/masterdata/sellers"
	"github.com/facturante/facturante/internal/masterdata/terms"
	"github.com/facturante/facturante/internal/payment"
)

var sweepAsOf string

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Manage the payment due-date tracker",
}

var paymentsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Flip past-due pending records to OVERDUE",
	RunE: func(cmd *cobra.Command, args []string) error {
		var asOf time.Time
		if sweepAsOf != "" {
			parsed, err := time.Parse("2006-01-02", sweepAsOf)
			if err != nil {
				return fmt.Errorf("invalid --as-of %q, expected YYYY-MM-DD", sweepAsOf)
			}
			asOf = parsed
		}

		ctx := cmd.Context()
		cfg, pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		catalog := masterdata.NewCatalog(
			clients.NewRepository(pool),
			sellers.NewRepository(pool),
			products.NewRepository(pool),
			terms.NewRepository(pool),
		)
		svc := payment.NewService(payment.NewRepository(pool), catalog, app.NewLogger(cfg), nil, 0)

		flipped, err := svc.SweepOverdue(ctx, asOf)
		if err != nil {
			return err
		}
		fmt.Printf("flipped %d records to OVERDUE\n", len(flipped))
		return nil
	},
}

func init() {
	paymentsSweepCmd.Flags().StringVar(&sweepAsOf, "as-of", "", "sweep cutoff date (YYYY-MM-DD, defaults to today)")

	paymentsCmd.AddCommand(paymentsSweepCmd)
	rootCmd.AddCommand(paymentsCmd)
}
