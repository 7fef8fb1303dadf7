package repositories

import (
	"context"
)

// TxFn is a function executed within a transaction.
// The transaction is available to repositories through the context.
type TxFn func(ctx context.Context) error

// TransactionManager runs functions inside a single atomic transaction.
// Multi-row writes (message batches, suggestion batches, delete cascades)
// must not leave partial state behind.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
