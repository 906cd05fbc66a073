package persistent

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	_ "github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

func PgOpen(ctx context.Context, pgDsn string) *bun.DB {
	sqldb, err := sql.Open("pg", pgDsn)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not open pg database.")
	}
	err = sqldb.PingContext(ctx)
	if err != nil {
		logrus.WithError(err).Fatalln("Could not ping pg database.")
	}

	bdb := bun.NewDB(sqldb, pgdialect.New())
	if os.Getenv("DB_VERBOSE") == "true" {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return bdb
}

// Running integration tests requires real pg db instance, but we
// don't have enough time to start db for every test so we start db once
// and then pass datasource to as many tests as we want.

func PgOpenTest(ctx context.Context) *bun.DB {
	return PgOpen(ctx, TestEnvDsn())
}

func TestEnvDsn() string {
	return os.Getenv("PGDB_DSN")
}

func SetTestEnvDsn(dsn string) {
	os.Setenv("PGDB_DSN", dsn)
}

// CreateSchema creates missing tables and indexes of all persistent models.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []interface{}{
		(*Session)(nil),
		(*ActivityLog)(nil),
	}
	for _, model := range models {
		modelType := reflect.TypeOf(model)
		logrus.WithField("model", modelType).Debugln("Creating table.")
		_, err := db.NewCreateTable().IfNotExists().Model(model).Exec(ctx)
		if err != nil {
			return fmt.Errorf("create table %s: %w", modelType, err)
		}
	}

	indexes := []struct {
		model  interface{}
		name   string
		column string
	}{
		{(*Session)(nil), "session_expires_at_idx", "expires_at"},
		{(*ActivityLog)(nil), "activity_log_owner_id_idx", "owner_id"},
	}
	for _, index := range indexes {
		_, err := db.NewCreateIndex().
			IfNotExists().
			Model(index.model).
			Index(index.name).
			Column(index.column).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", index.name, err)
		}
	}
	return nil
}
