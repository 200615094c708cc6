package storemanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/apikeys"
	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/authkeeper/internal/server/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresManager wires the SQL repositories over one *sql.DB. The same
// repositories run against a transactional handle inside InTx.
type PostgresManager struct {
	db *sql.DB
	h  dbx.DBTX
}

func NewPostgresManager(ctx context.Context, dsn string) (*PostgresManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	m := &PostgresManager{db: db, h: db}
	if err := m.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return m, nil
}

func (m *PostgresManager) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Files)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, m.db, ".")
}

func (m *PostgresManager) Users() users.Repository       { return users.NewPostgresRepository(m.h) }
func (m *PostgresManager) Sessions() sessions.Repository { return sessions.NewPostgresRepository(m.h) }
func (m *PostgresManager) APIKeys() apikeys.Repository   { return apikeys.NewPostgresRepository(m.h) }

func (m *PostgresManager) InTx(ctx context.Context, fn func(Manager) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(&PostgresManager{db: m.db, h: tx})
	})
}

func (m *PostgresManager) Close() error { return m.db.Close() }
