package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xxxsen/vmemory/internal/model"
	"github.com/xxxsen/vmemory/internal/pkg/dbutil"
	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

// MemoryStore groups the repos behind the operations the indexer and the
// searcher need. Every error it returns wraps ErrDatabase, except the
// not-found case of Checksum which is reported through the bool.
type MemoryStore struct {
	db *sql.DB
}

func NewMemoryStore(db *sql.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) Checksum(ctx context.Context, filePath string) (string, bool, error) {
	item, err := NewIndexedFileRepo(s.db).Get(ctx, filePath)
	if err != nil {
		if appErr.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, dbutil.WrapDB(err)
	}
	return item.Checksum, true, nil
}

// ReplaceSource swaps every chunk of source for chunks and records checksum
// for filePath, all inside one transaction.
func (s *MemoryStore) ReplaceSource(ctx context.Context, source, filePath, checksum string, chunks []model.MemoryChunk) error {
	return dbutil.Transact(ctx, s.db, func(tx *sql.Tx) error {
		memories := NewMemoryRepo(tx)
		if _, err := memories.DeleteBySource(ctx, source); err != nil {
			return fmt.Errorf("delete chunks of %s: %w", source, err)
		}
		if err := memories.InsertBatch(ctx, chunks); err != nil {
			return fmt.Errorf("insert chunks of %s: %w", source, err)
		}
		if err := NewIndexedFileRepo(tx).Upsert(ctx, filePath, checksum); err != nil {
			return fmt.Errorf("record checksum of %s: %w", filePath, err)
		}
		return nil
	})
}

func (s *MemoryStore) CountMemories(ctx context.Context) (int64, error) {
	total, err := NewMemoryRepo(s.db).Count(ctx)
	if err != nil {
		return 0, dbutil.WrapDB(err)
	}
	return total, nil
}

func (s *MemoryStore) Search(ctx context.Context, vec []float32, limit int, threshold float64) ([]model.SearchResult, error) {
	results, err := NewMemoryRepo(s.db).Search(ctx, vec, limit, threshold)
	if err != nil {
		return nil, dbutil.WrapDB(err)
	}
	return results, nil
}
