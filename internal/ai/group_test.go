package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	name  string
	err   error
	calls int
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType TaskType) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := make([][]float32, len(texts))
	for i := range texts {
		res[i] = []float32{float32(len(s.name)), 1}
	}
	return res, nil
}

func (s *stubEmbedder) ModelName() string {
	return s.name
}

func TestGroupEmbedderFallback(t *testing.T) {
	primary := &stubEmbedder{name: "a", err: errors.New("down")}
	secondary := &stubEmbedder{name: "bb"}
	g := NewGroupEmbedder([]EmbedderEntry{
		{Name: "openai:e5", Embedder: primary},
		{Name: "gemini:text-embedding-004", Embedder: secondary},
	})
	vecs, err := g.EmbedBatch(context.Background(), []string{"x"}, TaskPassage)
	require.NoError(t, err)
	require.Equal(t, [][]float32{{2, 1}}, vecs)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, secondary.calls)
	require.Equal(t, "openai:e5|gemini:text-embedding-004", g.ModelName())
}

func TestGroupEmbedderAllFail(t *testing.T) {
	last := errors.New("second down")
	g := NewGroupEmbedder([]EmbedderEntry{
		{Name: "a", Embedder: &stubEmbedder{err: errors.New("first down")}},
		{Name: "b", Embedder: &stubEmbedder{err: last}},
	})
	_, err := g.EmbedBatch(context.Background(), []string{"x"}, TaskQuery)
	require.ErrorIs(t, err, last)
}

func TestGroupEmbedderShortcuts(t *testing.T) {
	require.Nil(t, NewGroupEmbedder(nil))
	single := &stubEmbedder{name: "only"}
	require.Same(t, single, NewGroupEmbedder([]EmbedderEntry{{Name: "x", Embedder: single}}))
}
