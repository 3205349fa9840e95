package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/vmemory/internal/embedclient"
	"github.com/xxxsen/vmemory/internal/model"
	"github.com/xxxsen/vmemory/internal/schedule"
)

func TestPrintReport(t *testing.T) {
	report := &model.ReindexReport{FilesProcessed: 2, ChunksIndexed: 9, TotalMemories: 14}
	report.Skip("IDENTITY.md", "not found")

	var buf bytes.Buffer
	printReport(&buf, report)
	require.Equal(t, "Reindex complete:\n"+
		"  Files processed: 2\n"+
		"  Chunks indexed: 9\n"+
		"  Total memories in DB: 14\n"+
		"  Skipped IDENTITY.md (not found)\n", buf.String())
}

func TestRunRejectsBadSchedule(t *testing.T) {
	err := run(&bytes.Buffer{}, options{schedule: "whenever"})
	require.ErrorContains(t, err, "invalid --schedule")
}

type fakeScheduler struct {
	addErr  error
	jobs    []string
	started bool
	stopped bool
}

func (f *fakeScheduler) AddJob(job schedule.Job, spec string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.jobs = append(f.jobs, job.Name()+"@"+spec)
	return nil
}

func (f *fakeScheduler) Start(ctx context.Context) {
	f.started = true
}

func (f *fakeScheduler) Stop() {
	f.stopped = true
}

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string {
	return "reindex"
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestRunScheduled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &fakeScheduler{}
	j := &countingJob{err: errors.New("embedding service down")}
	require.NoError(t, runScheduled(ctx, s, j, "*/10 * * * *"))
	require.Equal(t, []string{"reindex@*/10 * * * *"}, s.jobs)
	require.Equal(t, 1, j.runs)
	require.True(t, s.started)
	require.True(t, s.stopped)
}

func TestRunScheduledAddJobError(t *testing.T) {
	s := &fakeScheduler{addErr: errors.New("bad spec")}
	j := &countingJob{}
	require.Error(t, runScheduled(context.Background(), s, j, "x"))
	require.Equal(t, 0, j.runs)
	require.False(t, s.started)
}

type fakeHealth struct {
	calls int
	err   error
}

func (f *fakeHealth) Health(ctx context.Context) (*embedclient.HealthResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &embedclient.HealthResponse{Status: "ok", Model: "intfloat/e5-large-v2", EmbeddingDim: 1024}, nil
}

func TestCheckEmbeddingService(t *testing.T) {
	ok := &fakeHealth{}
	checkEmbeddingService(context.Background(), ok)
	require.Equal(t, 1, ok.calls)

	down := &fakeHealth{err: errors.New("connection refused")}
	checkEmbeddingService(context.Background(), down)
	require.Equal(t, 1, down.calls)
}
