package main

import (
	"context"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsfeed/pkg/domain"
	"github.com/umputun/newsfeed/pkg/repository"
)

// pruningCache adapts the store to repository.Cache, trimming old news after each save
type pruningCache struct {
	*repository.Store
	keep int
}

func newPruningCache(store *repository.Store, keep int) *pruningCache {
	return &pruningCache{Store: store, keep: keep}
}

// Save stores the batch and keeps only the newest news. Prune failure is not a save failure.
func (c *pruningCache) Save(ctx context.Context, batch domain.Batch) error {
	if err := c.Store.Save(ctx, batch); err != nil {
		return err
	}
	if _, err := c.Prune(ctx, c.keep); err != nil {
		lgr.Printf("[WARN] %v", err)
	}
	return nil
}
