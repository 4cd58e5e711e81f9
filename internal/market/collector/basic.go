package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/wayne-kk/ak-shell/pkg/storage/postgres"
)

// BasicCollector refreshes the symbol registry snapshot.
type BasicCollector struct {
	deps Deps
}

func NewBasicCollector(deps Deps) *BasicCollector {
	return &BasicCollector{deps: deps}
}

func (c *BasicCollector) Collect(ctx context.Context) Result {
	res := Result{Task: "stock_basic", Attempted: 1}
	log := c.deps.Logger

	rows, err := fetch(ctx, c.deps, func(ctx context.Context) ([]postgres.StockBasic, error) {
		return c.deps.Source.StockBasics(ctx)
	})
	if err != nil {
		log.Error("failed to fetch symbol registry", zap.Error(err))
		res.Failed = 1
		return res
	}
	if len(rows) == 0 {
		log.Warn("symbol registry came back empty")
		res.Failed = 1
		return res
	}

	if err := c.deps.Store.UpsertStockBasics(ctx, rows); err != nil {
		log.Error("failed to upsert symbol registry", zap.Error(err))
		res.Failed = 1
		res.Err = err
		return res
	}

	res.Succeeded = 1
	res.Rows = len(rows)
	log.Info("symbol registry refreshed", zap.Int("rows", len(rows)))
	return res
}
