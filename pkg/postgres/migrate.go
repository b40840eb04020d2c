package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the schema at dsn up to date from the migration files
// at path. An already current schema is not an error.
func RunMigrations(path, dsn string) error {
	const op = "postgres.RunMigrations"

	m, err := migrate.New(path, dsn)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize migrations: %w", op, err)
	}

	upErr := m.Up()
	srcErr, dbErr := m.Close()

	switch {
	case upErr != nil && !errors.Is(upErr, migrate.ErrNoChange):
		return fmt.Errorf("%s: failed to apply migrations: %w", op, upErr)
	case srcErr != nil:
		return fmt.Errorf("%s: failed to close migration source: %w", op, srcErr)
	case dbErr != nil:
		return fmt.Errorf("%s: failed to close migration database: %w", op, dbErr)
	}

	return nil
}
