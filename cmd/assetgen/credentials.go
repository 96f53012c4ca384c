package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"assetgen/internal/adapter/repo"
	"assetgen/internal/domain"
	"assetgen/internal/infra"
	"assetgen/internal/infra/credentials"
)

var errNoAPIKey = errors.New("no Meshy API key configured: set MESHY_API_KEY, or set DATABASE_URL and run `assetgen credentials set --key <key>` once")

// resolveAPIKey prefers the environment and falls back to the credential
// store when one is configured.
func resolveAPIKey(ctx context.Context, envKey string, store domain.CredentialStore, logger infra.Logger) (string, error) {
	if key := strings.TrimSpace(envKey); key != "" {
		return key, nil
	}
	if store != nil {
		key, err := store.Token(ctx, credentials.ProviderMeshy)
		if err != nil {
			logger.Warn().Err(err).Msg("assetgen: failed to load meshy api key from store")
		} else if key != "" {
			logger.Debug().Msg("assetgen: using meshy api key from credential store")
			return key, nil
		}
	}
	return "", errNoAPIKey
}

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage stored provider credentials",
	}

	var key string
	set := &cobra.Command{
		Use:   "set",
		Short: "Store the Meshy API key in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key = strings.TrimSpace(key)
			if key == "" {
				key = strings.TrimSpace(os.Getenv("MESHY_API_KEY"))
			}
			if key == "" {
				return errors.New("MESHY API key is required via --key or MESHY_API_KEY")
			}
			dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
			if dbURL == "" {
				return errors.New("DATABASE_URL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			pool, err := infra.NewDBPool(ctx, dbURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := infra.NewLogger(os.Getenv("APP_ENV")).With().Str("cmd", "credentials").Logger()
			runner := infra.NewSQLRunner(pool, logger)
			if err := repo.NewRunRepository(runner).EnsureSchema(ctx); err != nil {
				return err
			}
			if err := credentials.NewStore(runner).SetMeshyAPIKey(ctx, key); err != nil {
				return fmt.Errorf("failed to persist meshy api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "MESHY API key stored successfully")
			return nil
		},
	}
	set.Flags().StringVar(&key, "key", "", "Meshy API key (falls back to MESHY_API_KEY)")
	cmd.AddCommand(set)
	return cmd
}
