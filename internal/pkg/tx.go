package pkg

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

// ErrNilDB is returned by WithTx when no database handle is supplied.
var ErrNilDB = errors.New("pkg: nil database handle")

// WithTx runs fn inside a transaction bound to ctx. The transaction commits
// when fn returns nil and rolls back when fn returns an error or panics; a
// panic is re-raised after the rollback.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error, opts ...*sql.TxOptions) error {
	if db == nil {
		return ErrNilDB
	}
	return db.WithContext(ctx).Transaction(fn, opts...)
}
