package credentials

import (
	"context"
	"errors"
	"strings"

	"assetgen/internal/infra"
	"assetgen/internal/sqlinline"
)

const (
	ProviderMeshy = "meshy"
)

// Store keeps provider API keys in the integration_tokens table so they need
// not live in the environment of every machine running a batch.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetMeshyAPIKey(ctx context.Context, key string) error {
	return s.SetToken(ctx, ProviderMeshy, key)
}

func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	token = strings.TrimSpace(token)
	if provider == "" {
		return errors.New("provider is required")
	}
	if token == "" {
		return errors.New(provider + " api key is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertProviderToken, provider, token)
	return err
}
