package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/vmemory/internal/model"
	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
	"github.com/xxxsen/vmemory/internal/service"
)

type fakeSearcher struct {
	results []model.SearchResult
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int, threshold float64) ([]model.SearchResult, error) {
	return f.results, f.err
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, fmt.Errorf("%w: connection refused", appErr.ErrModel)
}

func TestSearchSoftFailsOnModelError(t *testing.T) {
	var errOut bytes.Buffer
	s := &fakeSearcher{err: fmt.Errorf("%w: connection refused", appErr.ErrModel)}
	results, err := search(context.Background(), s, "tea", 5, 0.5, false, &errOut)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Contains(t, errOut.String(), "warning: embedding service unavailable")

	var out bytes.Buffer
	require.NoError(t, printResults(&out, results, false))
	require.Equal(t, "No results found.\n", out.String())
}

func TestSearchStrictReturnsModelError(t *testing.T) {
	var errOut bytes.Buffer
	s := &fakeSearcher{err: fmt.Errorf("%w: connection refused", appErr.ErrModel)}
	_, err := search(context.Background(), s, "tea", 5, 0.5, true, &errOut)
	require.True(t, appErr.IsModel(err))
	require.Empty(t, errOut.String())
}

func TestSearchReturnsOtherErrors(t *testing.T) {
	var errOut bytes.Buffer
	s := &fakeSearcher{err: errors.New("relation memories does not exist")}
	_, err := search(context.Background(), s, "tea", 5, 0.5, false, &errOut)
	require.Error(t, err)
	require.Empty(t, errOut.String())
}

func TestSearchPassesResults(t *testing.T) {
	s := &fakeSearcher{results: []model.SearchResult{{ID: 1, Similarity: 0.9}}}
	results, err := search(context.Background(), s, "tea", 5, 0.5, false, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestDatabaseNotOpenedWhenEmbeddingFails(t *testing.T) {
	opened := 0
	store := &lazyStore{open: func(ctx context.Context) (*sql.DB, error) {
		opened++
		return nil, errors.New("dial tcp: connection refused")
	}}
	var errOut bytes.Buffer
	results, err := search(context.Background(), service.NewSearchService(store, failingEmbedder{}), "tea", 5, 0.5, false, &errOut)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, 0, opened)
	require.NoError(t, store.Close())
}

func TestLazyStoreOpenError(t *testing.T) {
	store := &lazyStore{open: func(ctx context.Context) (*sql.DB, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	_, err := store.Search(context.Background(), []float32{0, 1}, 5, 0.5)
	require.Error(t, err)
	require.NoError(t, store.Close())
}
