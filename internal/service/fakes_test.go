package service

import (
	"context"
	"errors"
	"sync"

	"github.com/xxxsen/vmemory/internal/ai"
	"github.com/xxxsen/vmemory/internal/model"
)

type fakeEmbedder struct {
	mu       sync.Mutex
	dim      int
	failOn   map[string]bool
	err      error
	inputs   [][]string
	tasks    []ai.TaskType
	override [][]float32
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType ai.TaskType) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, append([]string(nil), texts...))
	f.tasks = append(f.tasks, taskType)
	if f.err != nil {
		return nil, f.err
	}
	if f.override != nil {
		return f.override, nil
	}
	res := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if f.failOn[text] {
			return nil, errors.New("backend rejected input")
		}
		vec := make([]float32, f.dim)
		for i := range vec {
			vec[i] = float32(len(text) + i + 1)
		}
		res = append(res, vec)
	}
	return res, nil
}

func (f *fakeEmbedder) ModelName() string {
	return "fake"
}

type fakePassageEmbedder struct {
	calls  int
	failOn map[string]bool
}

func (f *fakePassageEmbedder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	res := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if f.failOn[text] {
			return nil, errors.New("model unavailable")
		}
		res = append(res, []float32{1, 0})
	}
	return res, nil
}

type replaceCall struct {
	source   string
	filePath string
	checksum string
	chunks   []model.MemoryChunk
}

// fakeStore keeps chunks per source and checksums per path like the
// postgres store does.
type fakeStore struct {
	checksums  map[string]string
	chunks     map[string][]model.MemoryChunk
	replaces   []replaceCall
	failSource string
	results    []model.SearchResult
	searchArgs []interface{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		checksums: map[string]string{},
		chunks:    map[string][]model.MemoryChunk{},
	}
}

func (s *fakeStore) Checksum(ctx context.Context, filePath string) (string, bool, error) {
	sum, ok := s.checksums[filePath]
	return sum, ok, nil
}

func (s *fakeStore) ReplaceSource(ctx context.Context, source, filePath, checksum string, chunks []model.MemoryChunk) error {
	if source == s.failSource {
		return errors.New("connection reset")
	}
	s.replaces = append(s.replaces, replaceCall{source: source, filePath: filePath, checksum: checksum, chunks: chunks})
	s.chunks[source] = chunks
	s.checksums[filePath] = checksum
	return nil
}

func (s *fakeStore) CountMemories(ctx context.Context) (int64, error) {
	var total int64
	for _, chunks := range s.chunks {
		total += int64(len(chunks))
	}
	return total, nil
}

func (s *fakeStore) Search(ctx context.Context, vec []float32, limit int, threshold float64) ([]model.SearchResult, error) {
	s.searchArgs = []interface{}{vec, limit, threshold}
	return s.results, nil
}
