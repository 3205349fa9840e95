package job

import (
	"context"

	"github.com/xxxsen/vmemory/internal/model"
)

type Reindexer interface {
	Reindex(ctx context.Context, memoryDir string, force bool) (*model.ReindexReport, error)
}

// ReindexJob runs an incremental reindex of one memory directory. OnReport,
// when set, receives the report of every successful run.
type ReindexJob struct {
	indexer   Reindexer
	memoryDir string
	force     bool
	OnReport  func(*model.ReindexReport)
}

func NewReindexJob(indexer Reindexer, memoryDir string, force bool) *ReindexJob {
	return &ReindexJob{indexer: indexer, memoryDir: memoryDir, force: force}
}

func (j *ReindexJob) Name() string {
	return "memory_reindex"
}

func (j *ReindexJob) Run(ctx context.Context) error {
	report, err := j.indexer.Reindex(ctx, j.memoryDir, j.force)
	if err != nil {
		return err
	}
	if j.OnReport != nil {
		j.OnReport(report)
	}
	return nil
}
