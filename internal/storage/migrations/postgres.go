package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"swing-trade-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded trade and signal journal
// schema. Every migration is written to be idempotent (CREATE TABLE IF
// NOT EXISTS), so it is safe to run on every startup.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}

	return nil
}
