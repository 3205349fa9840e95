package model

import "time"

type MemoryChunk struct {
	ID        int64          `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"embedding,omitempty"`
	Metadata  map[string]any `json:"metadata"`
	Source    string         `json:"source"`
	CreatedAt *time.Time     `json:"created_at"`
}

type IndexedFile struct {
	FilePath    string    `json:"file_path"`
	Checksum    string    `json:"checksum"`
	LastIndexed time.Time `json:"last_indexed"`
}

type SearchResult struct {
	ID         int64          `json:"id"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Source     string         `json:"source"`
	CreatedAt  *string        `json:"created_at"`
	Similarity float64        `json:"similarity"`
}

type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

type ReindexReport struct {
	FilesProcessed int           `json:"files_processed"`
	ChunksIndexed  int           `json:"chunks_indexed"`
	TotalMemories  int64         `json:"total_memories"`
	Skipped        []SkippedFile `json:"skipped"`
}

func (r *ReindexReport) Skip(file, reason string) {
	r.Skipped = append(r.Skipped, SkippedFile{File: file, Reason: reason})
}
