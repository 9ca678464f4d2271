package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facturante/facturante/internal/auth"
)

var apikeyLabel string

var apikeysCmd = &cobra.Command{
	Use:   "apikeys",
	Short: "Manage API keys",
}

var apikeysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint a new API key and print the token once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		svc := auth.NewService(auth.NewRepository(pool))
		key, token, err := svc.CreateKey(ctx, apikeyLabel)
		if err != nil {
			return err
		}
		fmt.Printf("key id: %s\nlabel:  %s\ntoken:  %s\n", key.KeyID, key.Label, token)
		fmt.Println("store the token now, it cannot be recovered")
		return nil
	},
}

var apikeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		svc := auth.NewService(auth.NewRepository(pool))
		keys, err := svc.ListKeys(ctx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			state := "active"
			if !key.Active {
				state = "revoked"
			}
			fmt.Printf("%s  %-20s %s\n", key.KeyID, key.Label, state)
		}
		return nil
	},
}

var apikeysRevokeCmd = &cobra.Command{
	Use:   "revoke [key-id]",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		svc := auth.NewService(auth.NewRepository(pool))
		if err := svc.RevokeKey(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("key %s revoked\n", args[0])
		return nil
	},
}

func init() {
	apikeysCreateCmd.Flags().StringVar(&apikeyLabel, "label", "", "human-readable label for the key")

	apikeysCmd.AddCommand(apikeysCreateCmd, apikeysListCmd, apikeysRevokeCmd)
	rootCmd.AddCommand(apikeysCmd)
}
