package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vmemory/internal/model"
	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

type SearchStore interface {
	Search(ctx context.Context, vec []float32, limit int, threshold float64) ([]model.SearchResult, error)
}

type SearchService struct {
	store    SearchStore
	embedder QueryEmbedder
}

func NewSearchService(store SearchStore, embedder QueryEmbedder) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

// Search returns at most limit chunks whose similarity to query is strictly
// greater than threshold, best first. A zero limit matches nothing. Embedding
// failures are returned wrapped in ErrModel so callers can tell them apart
// from an empty match.
func (s *SearchService) Search(ctx context.Context, query string, limit int, threshold float64) ([]model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", appErr.ErrInvalid)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", appErr.ErrInvalid)
	}
	if limit == 0 {
		return []model.SearchResult{}, nil
	}
	logger := logutil.GetLogger(ctx).With(zap.Int("limit", limit), zap.Float64("threshold", threshold))
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		logger.Error("failed to embed search query", zap.Error(err))
		if !appErr.IsModel(err) {
			err = fmt.Errorf("%w: %w", appErr.ErrModel, err)
		}
		return nil, err
	}
	rows, err := s.store.Search(ctx, vec, limit, threshold)
	if err != nil {
		logger.Error("failed to search memories", zap.Error(err))
		return nil, err
	}
	results := make([]model.SearchResult, 0, len(rows))
	for _, row := range rows {
		if row.Similarity > threshold {
			results = append(results, row)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	logger.Debug("search finished", zap.Int("results", len(results)))
	return results, nil
}
