package repository

import (
	"context"
	"fmt"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsfeed/pkg/domain"
)

// Source provides a batch of news
type Source interface {
	GetNews(ctx context.Context) (domain.Batch, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (domain.Batch, error)

// GetNews calls f
func (f SourceFunc) GetNews(ctx context.Context) (domain.Batch, error) { return f(ctx) }

// Cache persists fetched news
type Cache interface {
	Save(ctx context.Context, batch domain.Batch) error
	List(ctx context.Context, limit int) (domain.Batch, error)
}

// CachedParams configures Cached
type CachedParams struct {
	Source          Source
	Cache           Cache
	FallbackToCache bool // serve cached news when the source fails
	FallbackLimit   int  // max cached news served on fallback, 0 for all
}

// Cached fetches from the source and keeps a copy in the cache
type Cached struct {
	CachedParams
}

// NewCached makes a caching repository
func NewCached(params CachedParams) *Cached {
	return &Cached{CachedParams: params}
}

// GetNews returns the fresh batch from the source. Cache write failures are logged only.
func (c *Cached) GetNews(ctx context.Context) (domain.Batch, error) {
	batch, err := c.Source.GetNews(ctx)
	if err != nil {
		if !c.FallbackToCache {
			return nil, err
		}
		cached, cerr := c.Cache.List(ctx, c.FallbackLimit)
		if cerr != nil || len(cached) == 0 {
			if cerr != nil {
				lgr.Printf("[WARN] can't read cached news: %v", cerr)
			}
			return nil, err
		}
		lgr.Printf("[WARN] source failed, serving %d cached news: %v", len(cached), err)
		return cached, nil
	}

	if err := c.Cache.Save(ctx, batch); err != nil {
		lgr.Printf("[WARN] %v", fmt.Errorf("cache news: %w", err))
	}
	return batch, nil
}
