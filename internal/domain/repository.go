package domain

import "context"

// RunRepository persists finished batch reports.
type RunRepository interface {
	SaveReport(ctx context.Context, report *Report) error
}

// CredentialStore resolves provider credentials kept outside the environment.
type CredentialStore interface {
	Token(ctx context.Context, provider string) (string, error)
}
