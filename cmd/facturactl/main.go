// Command facturactl is the operations CLI for the invoicing service. It
// talks to the database directly and is intended for administrators.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/facturante/facturante/internal/app"
	"github.com/facturante/facturante/internal/platform/db"
)

var rootCmd = &cobra.Command{
	Use:          "facturactl",
	Short:        "Admin CLI for the invoicing back office",
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect loads config and opens the connection pool used by subcommands.
func connect(ctx context.Context) (*app.Config, *pgxpool.Pool, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}
