package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/facturante/facturante/internal/app"
	"github.com/facturante/facturante/internal/folio"
)

var provisionCount int
var provisionSeries string

var foliosCmd = &cobra.Command{
	Use:   "folios",
	Short: "Manage the folio pool",
}

var foliosProvisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Append a batch of sequential folios to a series",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		svc := folio.NewService(folio.NewRepository(pool), app.NewLogger(cfg), cfg.DefaultFolioSeries)
		folios, err := svc.ProvisionSequential(ctx, provisionCount, provisionSeries)
		if err != nil {
			return err
		}

		first, last := folios[0], folios[len(folios)-1]
		fmt.Printf("provisioned %d folios in series %s (%d..%d)\n", len(folios), first.Series, first.Number, last.Number)
		return nil
	},
}

var foliosVoidCmd = &cobra.Command{
	Use:   "void [id]",
	Short: "Retire an available folio so it can never be claimed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid folio id %q", args[0])
		}

		ctx := cmd.Context()
		cfg, pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		svc := folio.NewService(folio.NewRepository(pool), app.NewLogger(cfg), cfg.DefaultFolioSeries)
		f, err := svc.Void(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("folio %s-%d voided\n", f.Series, f.Number)
		return nil
	},
}

func init() {
	foliosProvisionCmd.Flags().IntVar(&provisionCount, "count", 100, "number of folios to provision")
	foliosProvisionCmd.Flags().StringVar(&provisionSeries, "series", "", "folio series (defaults to the configured series)")

	foliosCmd.AddCommand(foliosProvisionCmd, foliosVoidCmd)
	rootCmd.AddCommand(foliosCmd)
}
