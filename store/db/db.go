package db

import (
	"github.com/pkg/errors"

	"github.com/parrotflow/converse/internal/profile"
	"github.com/parrotflow/converse/store"
	"github.com/parrotflow/converse/store/db/postgres"
	"github.com/parrotflow/converse/store/db/sqlite"
)

// Two database drivers are supported.
//
// PostgreSQL: production use, embeddings stored as pgvector columns.
// SQLite: development and testing, embeddings stored as JSON text.

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
