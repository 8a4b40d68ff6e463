package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional transaction
// handle so repository calls inside and outside a transaction share
// one signature.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func New(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

func (c Context) WithTx(tx *gorm.DB) Context {
	return Context{Ctx: c.Ctx, Tx: tx}
}
