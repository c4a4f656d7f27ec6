package migrations

import (
	"context"
	"fmt"
	"strings"

	"solana-token-minter/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded upload_sessions and token_records schema.
// Every file is idempotent, so running on each start is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]string, error) {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, f := range files {
		if strings.TrimSpace(f.body) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, f.body); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", f.name, err)
		}
		applied = append(applied, f.name)
	}
	return applied, nil
}
