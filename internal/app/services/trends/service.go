// Package trends serves the trending football topics feed: fetched from
// Google Trends, filtered to football keywords, merged across geo regions and
// cached through the storage layer.
package trends

import (
	"context"
	"errors"
	"strconv"

	"github.com/shabikihub/shabiki/internal/app/domain/trend"
	"github.com/shabikihub/shabiki/internal/app/storage"
	"github.com/shabikihub/shabiki/pkg/logger"
)

// Fetcher retrieves live trending topics.
type Fetcher interface {
	FetchTrendingTopics(ctx context.Context) ([]trend.Topic, error)
}

// Service implements the cache-then-serve contract: reads come from the
// cached document; the fetcher is only hit when the cache is empty or on an
// explicit refresh.
type Service struct {
	meta    storage.MetaStore
	fetcher Fetcher
	log     *logger.Logger
}

// New creates a configured trends service.
func New(meta storage.MetaStore, fetcher Fetcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("trends")
	}
	return &Service{meta: meta, fetcher: fetcher, log: log}
}

// Cached returns the cached topics, falling back to a live fetch before the
// first refresh has populated the cache.
func (s *Service) Cached(ctx context.Context) ([]trend.Topic, error) {
	topics, err := s.meta.TrendingTopics(ctx)
	if err == nil {
		return topics, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return s.fetcher.FetchTrendingTopics(ctx)
}

// Refresh fetches live topics and stores them as the new cache document.
func (s *Service) Refresh(ctx context.Context) ([]trend.Topic, error) {
	topics, err := s.fetcher.FetchTrendingTopics(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.meta.SetTrendingTopics(ctx, topics); err != nil {
		return nil, err
	}
	s.log.WithField("topics", len(topics)).Info("trending topics refreshed")
	return topics, nil
}

// Searches derives the hot-searches view from the cached topics.
func (s *Service) Searches(ctx context.Context) ([]trend.Search, error) {
	topics, err := s.Cached(ctx)
	if err != nil {
		return nil, err
	}
	if len(topics) > 10 {
		topics = topics[:10]
	}

	searches := make([]trend.Search, 0, len(topics))
	for i, t := range topics {
		size := "md"
		switch {
		case i < 1:
			size = "xl"
		case i < 3:
			size = "lg"
		}
		searches = append(searches, trend.Search{
			ID:      strconv.Itoa(i + 1),
			Keyword: t.Topic,
			Size:    size,
			Brief:   t.Topic,
			Details: t.Description,
		})
	}
	return searches, nil
}
