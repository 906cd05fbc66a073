// Package testenv starts throwaway infrastructure for integration tests.
package testenv

import (
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"fmt"
	"time"

	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
	"github.com/sirupsen/logrus"
	_ "github.com/uptrace/bun/driver/pgdriver"
)

// StartPostgres runs a postgres docker container and waits until it accepts
// connections. Returns the container dsn and a func purging the container.
func StartPostgres() (string, func(), error) {
	psgPassB := make([]byte, 30)
	if _, err := rand.Read(psgPassB); err != nil {
		return "", nil, fmt.Errorf("password generate: %w", err)
	}
	psgPass := base32.StdEncoding.EncodeToString(psgPassB)

	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", nil, fmt.Errorf("docker connect: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "14.1",
		Env:        []string{"POSTGRES_PASSWORD=" + psgPass},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", nil, fmt.Errorf("resource start: %w", err)
	}
	resource.Expire(120)
	purge := func() {
		if err := pool.Purge(resource); err != nil {
			logrus.WithError(err).Warningln("Could not purge resource.")
		}
	}

	var pgDsn string
	pool.MaxWait = 30 * time.Second
	err = pool.Retry(func() error {
		pgDsn = fmt.Sprintf("postgresql://postgres:%s@localhost:%s/postgres?sslmode=disable",
			psgPass, resource.GetPort("5432/tcp"))
		sqldb, err := sql.Open("pg", pgDsn)
		if err != nil {
			return fmt.Errorf("sql open: %w", err)
		}
		defer sqldb.Close()

		if err = sqldb.Ping(); err != nil {
			return fmt.Errorf("sqldb ping: %w", err)
		}
		return nil
	})
	if err != nil {
		purge()
		return "", nil, fmt.Errorf("database connect: %w", err)
	}
	return pgDsn, purge, nil
}
