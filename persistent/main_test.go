package persistent

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/hairlens/hairlens/testenv"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

func TestMain(m *testing.M) {
	flag.Parse()

	shutdownDb := func() {}
	if !testing.Short() && TestEnvDsn() == "" {
		logrus.Infoln("Starting db")
		dsn, purge, err := testenv.StartPostgres()
		if err != nil {
			logrus.WithError(err).Warningln("Could not start test database, database tests will be skipped.")
		} else {
			SetTestEnvDsn(dsn)
			shutdownDb = purge
		}
	}
	if !testing.Short() && TestEnvDsn() != "" {
		db := PgOpenTest(context.Background())
		if err := CreateSchema(context.Background(), db); err != nil {
			shutdownDb()
			logrus.WithError(err).Fatalln("Could not create schema.")
		}
		_ = db.Close()
	}

	code := m.Run()
	shutdownDb()
	os.Exit(code)
}

// openTestDb skips the calling test when no test database is available.
func openTestDb(t *testing.T) *bun.DB {
	t.Helper()
	if testing.Short() || TestEnvDsn() == "" {
		t.SkipNow()
	}
	db := PgOpenTest(context.Background())
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
