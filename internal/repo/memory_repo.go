package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/vmemory/internal/model"
	"github.com/xxxsen/vmemory/internal/pkg/dbutil"
)

type MemoryRepo struct {
	db dbutil.Executor
}

func NewMemoryRepo(db dbutil.Executor) *MemoryRepo {
	return &MemoryRepo{db: db}
}

func (r *MemoryRepo) DeleteBySource(ctx context.Context, source string) (int64, error) {
	where := map[string]interface{}{
		"source": source,
	}
	sqlStr, args, err := builder.BuildDelete("memories", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertBatch writes all chunks with a single multi-row insert.
func (r *MemoryRepo) InsertBatch(ctx context.Context, chunks []model.MemoryChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		meta := chunk.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		data = append(data, map[string]interface{}{
			"content":   chunk.Content,
			"embedding": pgvector.NewVector(chunk.Embedding),
			"metadata":  string(raw),
			"source":    chunk.Source,
		})
	}
	sqlStr, args, err := builder.BuildInsert("memories", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *MemoryRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM memories`
	var total int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *MemoryRepo) CountBySource(ctx context.Context, source string) (int64, error) {
	const query = `SELECT COUNT(*) FROM memories WHERE source = $1`
	var total int64
	if err := r.db.QueryRowContext(ctx, query, source).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Search ranks rows by cosine similarity to vec. Only rows scoring strictly
// above threshold are returned, best first.
func (r *MemoryRepo) Search(ctx context.Context, vec []float32, limit int, threshold float64) ([]model.SearchResult, error) {
	const query = `
		SELECT id, content, metadata, source, created_at,
			1 - (embedding <=> $1) AS similarity
		FROM memories
		WHERE 1 - (embedding <=> $1) > $2
		ORDER BY similarity DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vec), threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := make([]model.SearchResult, 0, limit)
	for rows.Next() {
		var item model.SearchResult
		var meta []byte
		var createdAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.Content, &meta, &item.Source, &createdAt, &item.Similarity); err != nil {
			return nil, err
		}
		item.Metadata = map[string]any{}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &item.Metadata); err != nil {
				return nil, err
			}
		}
		if createdAt.Valid {
			ts := createdAt.Time.Format(time.RFC3339Nano)
			item.CreatedAt = &ts
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *MemoryRepo) ListBySource(ctx context.Context, source string) ([]model.MemoryChunk, error) {
	const query = `
		SELECT id, content, embedding, metadata, source, created_at
		FROM memories
		WHERE source = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.MemoryChunk
	for rows.Next() {
		var item model.MemoryChunk
		var vec pgvector.Vector
		var meta []byte
		var createdAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.Content, &vec, &meta, &item.Source, &createdAt); err != nil {
			return nil, err
		}
		item.Embedding = vec.Slice()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &item.Metadata); err != nil {
				return nil, err
			}
		}
		if createdAt.Valid {
			t := createdAt.Time
			item.CreatedAt = &t
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
