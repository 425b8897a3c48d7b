package testutil

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elementalai/elemental/internal/db"
)

// ErrInjected is returned by a failing UnitOfWork at the configured write.
var ErrInjected = errors.New("injected exec failure")

// NewTestDB opens a private in-memory database with the schema applied. It
// is closed when the test completes.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// NewFailingUoW behaves like NewTestUoW but fails the failOn-th ExecContext
// of every transaction (counting from 1). Reads pass through.
func NewFailingUoW(database *sql.DB, failOn int32) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database, func(tx db.DBTX) db.DBTX {
		return &failingTx{DBTX: tx, failOn: failOn}
	})
}

type failingTx struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.count.Add(1) == f.failOn {
		return nil, ErrInjected
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
