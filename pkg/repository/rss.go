package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"html"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/newsfeed/pkg/domain"
)

// RSSParams configures the RSS news source
type RSSParams struct {
	URLs      []string
	Timeout   time.Duration
	UserAgent string
}

// RSS fetches news from RSS/Atom feeds
type RSS struct {
	urls      []string
	timeout   time.Duration
	userAgent string
	client    *http.Client
	policy    *bluemonday.Policy
}

// NewRSS makes an RSS source for the given feeds
func NewRSS(params RSSParams) *RSS {
	if params.Timeout <= 0 {
		params.Timeout = 30 * time.Second
	}
	if params.UserAgent == "" {
		params.UserAgent = "Newsfeed/1.0"
	}
	return &RSS{
		urls:      params.URLs,
		timeout:   params.Timeout,
		userAgent: params.UserAgent,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		policy: bluemonday.StrictPolicy(),
	}
}

// GetNews fetches all feeds concurrently and returns their items in feed order.
// A failure of any feed fails the whole batch.
func (r *RSS) GetNews(ctx context.Context) (domain.Batch, error) {
	if len(r.urls) == 0 {
		return nil, errors.New("no feeds configured")
	}

	results := make([]domain.Batch, len(r.urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range r.urls {
		g.Go(func() error {
			items, err := r.fetch(gctx, u)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := domain.Batch{}
	for _, items := range results {
		res = append(res, items...)
	}
	return res, nil
}

// fetch retrieves and converts a single feed
func (r *RSS) fetch(ctx context.Context, feedURL string) (domain.Batch, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.UserAgent = r.userAgent
	parser.Client = r.client
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	res := make(domain.Batch, 0, len(feed.Items))
	for _, item := range feed.Items {
		res = append(res, r.toNews(feedURL, item))
	}
	lgr.Printf("[DEBUG] fetched %d items from %s", len(res), feedURL)
	return res, nil
}

func (r *RSS) toNews(feedURL string, item *gofeed.Item) domain.News {
	res := domain.News{
		ID:          newsID(feedURL, item),
		Title:       strings.TrimSpace(item.Title),
		Description: r.plainText(item.Description),
		ImageURL:    imageURL(item),
		URL:         item.Link,
	}
	if item.PublishedParsed != nil {
		res.Published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		res.Published = item.UpdatedParsed.UTC()
	}
	return res
}

// plainText strips markup from a description
func (r *RSS) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
}

// newsID derives a stable numeric id from the feed url and guid, link or title.
// Guids are unique only within a feed.
func newsID(feedURL string, item *gofeed.Item) int64 {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(feedURL))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64() & math.MaxInt64)
}

// imageURL picks the item image or the first image enclosure
func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
