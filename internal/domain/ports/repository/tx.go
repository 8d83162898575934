package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. Repositories accept NoTX for the
// non-transactional path; the concrete type is infra-defined (pgx.Tx).
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		if err := recs.DeleteByUser(ctx, tx, userID); err != nil {
//			return err
//		}
//		return recs.Save(ctx, tx, r)
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
