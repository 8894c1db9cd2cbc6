// Package database applies the embedded SQL schema migrations.
package database

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrateUp applies all up migrations in filename order.
func MigrateUp(ctx context.Context, db *pgx.Conn) error {
	return apply(ctx, db, ".up.sql", false)
}

// MigrateDown applies all down migrations in reverse filename order.
func MigrateDown(ctx context.Context, db *pgx.Conn) error {
	return apply(ctx, db, ".down.sql", true)
}

func apply(ctx context.Context, db *pgx.Conn, suffix string, reverse bool) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if reverse {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}

	for _, name := range names {
		sql, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}
