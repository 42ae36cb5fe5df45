package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/muratoffalex/emotebot/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// gooseLogger routes goose output through the application logger.
type gooseLogger struct {
	log logger.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatal(fmt.Sprintf(format, v...))
}

func RunMigrations(db *sql.DB, log logger.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: log.WithComponent("migrations")})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
