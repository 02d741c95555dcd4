package guardkit

import (
	"context"
	"strings"

	"github.com/fernandezvara/dbkit"
)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// storeUnavailable classifies a backing-store failure. Authorization
// callers treat the result as a denial; it must never surface as an
// allow.
func storeUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return NewError(ErrStoreUnavailable, err.Error())
}

// inTransaction runs fn inside a database transaction against db. When
// db already is a transaction a savepoint is used, so store and service
// operations nest.
func inTransaction(ctx context.Context, db dbkit.IDB, fn func(tx dbkit.IDB) error) error {
	switch h := db.(type) {
	case *dbkit.Tx:
		return h.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	case *dbkit.DBKit:
		return h.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	default:
		return NewError(ErrStoreUnavailable, "transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}
}
