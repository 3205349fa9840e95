package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/vmemory/internal/model"
	"github.com/xxxsen/vmemory/internal/pkg/dbutil"
	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

type IndexedFileRepo struct {
	db dbutil.Executor
}

func NewIndexedFileRepo(db dbutil.Executor) *IndexedFileRepo {
	return &IndexedFileRepo{db: db}
}

func (r *IndexedFileRepo) Get(ctx context.Context, filePath string) (*model.IndexedFile, error) {
	where := map[string]interface{}{
		"file_path": filePath,
	}
	sqlStr, args, err := builder.BuildSelect("indexed_files", where, []string{"file_path", "checksum", "last_indexed"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var item model.IndexedFile
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	if err := row.Scan(&item.FilePath, &item.Checksum, &item.LastIndexed); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *IndexedFileRepo) Upsert(ctx context.Context, filePath, checksum string) error {
	const query = `
		INSERT INTO indexed_files (file_path, checksum, last_indexed)
		VALUES ($1, $2, NOW())
		ON CONFLICT (file_path) DO UPDATE SET
			checksum = EXCLUDED.checksum,
			last_indexed = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, filePath, checksum)
	return err
}
