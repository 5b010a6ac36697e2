// Package dbtest starts a disposable Postgres container for integration
// tests. Tests are skipped when no Docker endpoint is reachable.
package dbtest

import (
	"net"
	"testing"
	"time"

	"github.com/educast/catalog/config"
	"github.com/educast/catalog/database"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=catalog",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	res.Expire(300)

	cfg := config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       net.JoinHostPort("localhost", res.GetPort("5432/tcp")),
		Name:       "catalog",
		DisableTLS: true,
	}

	var db *sqlx.DB
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		var err error
		db, err = database.Open(cfg)
		if err != nil {
			return err
		}
		return db.Ping()
	})
	if err != nil {
		pool.Purge(res)
		t.Fatalf("connecting to postgres container: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		pool.Purge(res)
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		pool.Purge(res)
	})

	return db
}
