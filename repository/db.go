package repository

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultPingTimeout bounds the connection check Open runs
const DefaultPingTimeout = 5 * time.Second

// GetMigrationsFS returns the SQL migrations the application runs
func GetMigrationsFS() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// connConfig satisfies persistence.Config for a sqlite dsn
type connConfig struct {
	dsn string
}

func (c connConfig) GetDebug() bool                { return false }
func (c connConfig) GetDriver() string             { return sqliteshim.ShimName }
func (c connConfig) GetServer() string             { return c.dsn }
func (c connConfig) GetDatabase() string           { return c.dsn }
func (c connConfig) GetPingTimeout() time.Duration { return DefaultPingTimeout }
func (c connConfig) GetOtelIdentifier() string     { return "" }

// Open connects to the sqlite database at dsn
func Open(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, storageError(err, "unable to open database")
	}
	// sqlite serialises writers
	sqldb.SetMaxOpenConns(1)

	client, err := persistence.New(connConfig{dsn: dsn}, sqldb, sqlitedialect.New())
	if err != nil {
		_ = sqldb.Close()
		return nil, storageError(err, "unable to reach database")
	}

	db, ok := client.DB().(*bun.DB)
	if !ok {
		_ = sqldb.Close()
		return nil, storageError(sql.ErrConnDone, "unexpected database handle")
	}
	return db, nil
}

func migrations() *persistence.Migrations {
	return (&persistence.Migrations{}).RegisterSQLMigrations(GetMigrationsFS())
}

// Migrate applies every pending migration. Applied migrations are tracked
// in bun_migrations, so running it again is a no-op.
func Migrate(ctx context.Context, db *bun.DB) error {
	if err := migrations().Migrate(ctx, db); err != nil {
		return storageError(err, "unable to migrate database")
	}
	return nil
}

// Rollback reverts the most recently applied migration group
func Rollback(ctx context.Context, db *bun.DB) error {
	if err := migrations().Rollback(ctx, db); err != nil {
		return storageError(err, "unable to roll back database")
	}
	return nil
}
