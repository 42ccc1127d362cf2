package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/trackforge/assetflow/pkg/composables"
)

// runInTx opens a transaction on the request-scoped pool, binds it together
// with the tenant to the context and applies row-level security before
// handing control to fn. Tests swap this out for a pass-through.
var runInTx = func(ctx context.Context, tenantID uuid.UUID, fn func(txCtx context.Context) error) error {
	pool, err := composables.UsePool(ctx)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txCtx := composables.WithTx(ctx, tx)
	txCtx = composables.WithTenantID(txCtx, tenantID)
	if err := composables.ApplyTenantRLS(txCtx, tx); err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func inTx[T any](ctx context.Context, tenantID uuid.UUID, fn func(txCtx context.Context) (T, error)) (T, error) {
	var out T
	err := runInTx(ctx, tenantID, func(txCtx context.Context) error {
		v, err := fn(txCtx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
