package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// Migrate aplica los scripts de migrations/ en orden de nombre. Son idempotentes (IF NOT EXISTS).
func Migrate(ctx context.Context, q Querier) error {
	names, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		script, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}
