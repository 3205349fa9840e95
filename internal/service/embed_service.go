package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vmemory/internal/ai"
	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

const (
	PassagePrefix = "passage: "
	QueryPrefix   = "query: "

	sampleText = "dimension check"
)

// EmbedService applies the passage/query prefix convention on top of an
// embedding backend and guarantees unit-normalized vectors of a fixed
// dimension.
type EmbedService struct {
	embedder ai.IEmbedder
	model    string
	dim      int
}

func NewEmbedService(embedder ai.IEmbedder, model string, dim int) *EmbedService {
	return &EmbedService{embedder: embedder, model: model, dim: dim}
}

// Init asks the backend for its dimension when none was configured. It
// must be called before the service is shared between goroutines.
func (s *EmbedService) Init(ctx context.Context) error {
	if s.embedder == nil {
		return fmt.Errorf("%w: embedder not configured", appErr.ErrModel)
	}
	if s.dim > 0 {
		return nil
	}
	vecs, err := s.embedder.EmbedBatch(ctx, []string{PassagePrefix + sampleText}, ai.TaskPassage)
	if err != nil {
		return fmt.Errorf("%w: detect dimension: %w", appErr.ErrModel, err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return fmt.Errorf("%w: detect dimension: empty embedding", appErr.ErrModel)
	}
	s.dim = len(vecs[0])
	logutil.GetLogger(ctx).Info("embedding dimension detected", zap.String("model", s.model), zap.Int("dimension", s.dim))
	return nil
}

func (s *EmbedService) ModelName() string {
	return s.model
}

func (s *EmbedService) Dimension() int {
	return s.dim
}

func (s *EmbedService) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	return s.Embed(ctx, texts, PassagePrefix)
}

func (s *EmbedService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.Embed(ctx, []string{text}, QueryPrefix)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Embed prepends prefix to every text and returns one unit vector per text,
// in input order.
func (s *EmbedService) Embed(ctx context.Context, texts []string, prefix string) ([][]float32, error) {
	if texts == nil {
		return nil, fmt.Errorf("%w: texts must be a list of strings", appErr.ErrInvalid)
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: embedder not configured", appErr.ErrModel)
	}
	prefixed := make([]string, 0, len(texts))
	for _, text := range texts {
		prefixed = append(prefixed, prefix+text)
	}
	vecs, err := s.embedder.EmbedBatch(ctx, prefixed, taskTypeForPrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrModel, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", appErr.ErrModel, len(vecs), len(texts))
	}
	for i, vec := range vecs {
		if s.dim > 0 && len(vec) != s.dim {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, want %d", appErr.ErrModel, i, len(vec), s.dim)
		}
		ai.Normalize(vec)
	}
	return vecs, nil
}

func taskTypeForPrefix(prefix string) ai.TaskType {
	switch prefix {
	case PassagePrefix:
		return ai.TaskPassage
	case QueryPrefix:
		return ai.TaskQuery
	default:
		return ""
	}
}
