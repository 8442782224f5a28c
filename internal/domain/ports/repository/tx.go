package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one database transaction and passes the
// transaction handle down as tx. Repositories detect a live handle and
// lock the rows they read (SELECT ... FOR UPDATE). Passing NoTX to a
// repository runs the statement on the pool.
//
//	err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		m, err := members.FindByID(ctx, tx, gymID, id)
//		...
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
