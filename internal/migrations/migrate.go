package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

const mysqlDialect = "mysql"

// Up накатывает все непримененные SQL-миграции из migrationsDir.
func Up(db *sql.DB, migrationsDir string) error {
	if err := goose.SetDialect(mysqlDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}
