package main

import (
	"context"
	"flag"
	"os"
	"os/exec"

	"github.com/hairlens/hairlens/persistent"
	"github.com/hairlens/hairlens/testenv"
	"github.com/sirupsen/logrus"
)

// Starts postgres once, creates the schema and runs `go test` for the given
// package path (all packages by default) against it.
// inspiration: https://stackoverflow.com/a/64222654 (by brpaz)

func main() {
	flag.Parse()

	logrus.Println("Starting postgres db container")
	pgDsn, shutdownPgDb, err := testenv.StartPostgres()
	if err != nil {
		logrus.WithError(err).Fatalln("Could not create test database.")
	}

	db := persistent.PgOpen(context.Background(), pgDsn)
	if err := persistent.CreateSchema(context.Background(), db); err != nil {
		shutdownPgDb()
		logrus.WithError(err).Fatalln("Could not create test database schema.")
	}
	_ = db.Close()
	persistent.SetTestEnvDsn(pgDsn)

	path := "./..."
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	logrus.WithField("path", path).Println("Running tests...")
	ok := runTests(path)

	logrus.Println("Tests done. Shutting down test db.")
	shutdownPgDb()
	if !ok {
		os.Exit(1)
	}
}

func runTests(path string) bool {
	c := exec.Command("go", "test", path)
	c.Env = os.Environ()
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Start(); err != nil {
		logrus.WithError(err).Errorln("Could not run test command")
		return false
	}
	if err := c.Wait(); err != nil {
		logrus.WithError(err).Errorln("Could not wait on test command")
		return false
	}
	return true
}
