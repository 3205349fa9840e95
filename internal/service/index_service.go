package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vmemory/internal/chunker"
	"github.com/xxxsen/vmemory/internal/model"
	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

type PassageEmbedder interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
}

type IndexStore interface {
	Checksum(ctx context.Context, filePath string) (string, bool, error)
	ReplaceSource(ctx context.Context, source, filePath, checksum string, chunks []model.MemoryChunk) error
	CountMemories(ctx context.Context) (int64, error)
}

type IndexService struct {
	store     IndexStore
	embedder  PassageEmbedder
	files     []string
	chunkSize int
}

func NewIndexService(store IndexStore, embedder PassageEmbedder, files []string, chunkSize int) *IndexService {
	return &IndexService{
		store:     store,
		embedder:  embedder,
		files:     files,
		chunkSize: chunkSize,
	}
}

// Reindex walks the configured memory files inside memoryDir. Files that are
// missing, unchanged or cannot be embedded are skipped; a database error
// aborts the run but keeps every file committed before it.
func (s *IndexService) Reindex(ctx context.Context, memoryDir string, force bool) (*model.ReindexReport, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("dir", memoryDir), zap.Bool("force", force))
	info, err := os.Stat(memoryDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: memory directory %s", appErr.ErrNotFound, memoryDir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", appErr.ErrNotFound, memoryDir)
	}

	report := &model.ReindexReport{}
	for _, name := range s.files {
		indexed, err := s.indexFile(ctx, memoryDir, name, force, report)
		if err != nil {
			logger.Error("reindex aborted", zap.String("file", name), zap.Error(err))
			return report, err
		}
		if indexed >= 0 {
			report.FilesProcessed++
			report.ChunksIndexed += indexed
		}
	}
	total, err := s.store.CountMemories(ctx)
	if err != nil {
		return report, err
	}
	report.TotalMemories = total
	logger.Info("reindex complete",
		zap.Int("files_processed", report.FilesProcessed),
		zap.Int("chunks_indexed", report.ChunksIndexed),
		zap.Int64("total_memories", report.TotalMemories),
	)
	return report, nil
}

// indexFile returns the number of chunks written, or -1 when the file was
// skipped. Only database failures are returned as errors.
func (s *IndexService) indexFile(ctx context.Context, dir, name string, force bool, report *model.ReindexReport) (int, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("file", name))
	path := filepath.Join(dir, name)

	raw, err := os.ReadFile(path)
	if err != nil {
		reason := "unreadable"
		if errors.Is(err, os.ErrNotExist) {
			reason = "not found"
		}
		logger.Info("skipping file", zap.String("reason", reason), zap.Error(err))
		report.Skip(name, reason)
		return -1, nil
	}
	checksum := Checksum(raw)

	if !force {
		stored, ok, err := s.store.Checksum(ctx, path)
		if err != nil {
			return -1, err
		}
		if ok && stored == checksum {
			logger.Info("skipping file", zap.String("reason", "already indexed"))
			report.Skip(name, "already indexed")
			return -1, nil
		}
	}

	content := string(raw)
	texts := chunker.ChunkText(content, s.chunkSize)
	var chunks []model.MemoryChunk
	if len(texts) > 0 {
		logger.Info("generating embeddings", zap.Int("chunks", len(texts)))
		vecs, err := s.embedder.EmbedPassages(ctx, texts)
		if err == nil && len(vecs) != len(texts) {
			err = fmt.Errorf("%w: got %d embeddings for %d chunks", appErr.ErrModel, len(vecs), len(texts))
		}
		if err != nil {
			logger.Error("failed to get embeddings, skipping file", zap.Error(err))
			report.Skip(name, "embedding failed")
			return -1, nil
		}
		title := chunker.Title(content)
		chunks = make([]model.MemoryChunk, 0, len(texts))
		for i, text := range texts {
			meta := map[string]any{
				"file":        name,
				"chunk_index": i,
			}
			if title != "" {
				meta["title"] = title
			}
			chunks = append(chunks, model.MemoryChunk{
				Content:   text,
				Embedding: vecs[i],
				Metadata:  meta,
				Source:    name,
			})
		}
	} else {
		logger.Info("file has no content, clearing its chunks")
	}

	if err := s.store.ReplaceSource(ctx, name, path, checksum, chunks); err != nil {
		return -1, err
	}
	logger.Info("file indexed", zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// Checksum is the md5 hex digest of raw file bytes.
func Checksum(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}
