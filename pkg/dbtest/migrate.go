package dbtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/jmoiron/sqlx"
)

// Migrate applies SQL files in order, each inside its own transaction. A
// directory contributes its *.sql files sorted by name. It returns the
// files applied.
func Migrate(ctx context.Context, db *sqlx.DB, paths ...string) ([]string, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	for i, file := range files {
		if err = apply(ctx, db, file); err != nil {
			return files[:i], fmt.Errorf("%s: %w", file, err)
		}
	}

	return files, nil
}

func expand(paths []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("os.Stat: %w", err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(path, "*.sql"))
		if err != nil {
			return nil, fmt.Errorf("filepath.Glob: %w", err)
		}

		slices.Sort(matches)
		files = append(files, matches...)
	}

	return files, nil
}

func apply(ctx context.Context, db *sqlx.DB, file string) error {
	query, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("os.ReadFile: %w", err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTxx: %w", err)
	}

	if _, err = tx.ExecContext(ctx, string(query)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("tx.ExecContext: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}

	return nil
}
