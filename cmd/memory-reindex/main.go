package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vmemory/internal/bootstrap"
	"github.com/xxxsen/vmemory/internal/db"
	"github.com/xxxsen/vmemory/internal/embedclient"
	"github.com/xxxsen/vmemory/internal/job"
	"github.com/xxxsen/vmemory/internal/model"
	"github.com/xxxsen/vmemory/internal/repo"
	"github.com/xxxsen/vmemory/internal/schedule"
	"github.com/xxxsen/vmemory/internal/service"
)

type options struct {
	configPath string
	dir        string
	force      bool
	schedule   string
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "memory-reindex",
		Short:         "Reindex memory files into the vector database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}

	rootCmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "memory directory (default: $VECTOR_MEMORY_DIR or ~/.openclaw/workspace/memory)")
	rootCmd.Flags().BoolVarP(&opts.force, "force", "f", false, "force reindex even if files are unchanged")
	rootCmd.Flags().StringVar(&opts.schedule, "schedule", "", "keep running and reindex on this cron spec, e.g. \"*/10 * * * *\"")
	rootCmd.Flags().StringVar(&opts.configPath, "config", "", "path to config.json (environment variables override it)")

	if err := rootCmd.Execute(); err != nil {
		bootstrap.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(out io.Writer, opts options) error {
	if opts.schedule != "" {
		if err := schedule.ValidateSpec(opts.schedule); err != nil {
			return fmt.Errorf("invalid --schedule: %w", err)
		}
	}
	cfg, err := bootstrap.Setup(opts.configPath)
	if err != nil {
		return err
	}
	memoryDir := opts.dir
	if memoryDir == "" {
		memoryDir = cfg.Memory.Dir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.ApplyMigrations(ctx, conn); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	client := embedclient.New(cfg.Embedding.ServiceURL, cfg.Embedding.BatchTimeout(), cfg.Embedding.QueryTimeout())
	checkEmbeddingService(ctx, client)
	indexer := service.NewIndexService(repo.NewMemoryStore(conn), client, cfg.Memory.Files, cfg.Memory.ChunkSize)
	reindex := job.NewReindexJob(indexer, memoryDir, opts.force)
	reindex.OnReport = func(report *model.ReindexReport) {
		printReport(out, report)
	}

	if opts.schedule == "" {
		return schedule.RunJob(ctx, reindex)
	}
	return runScheduled(ctx, schedule.NewCronScheduler(), reindex, opts.schedule)
}

type healthChecker interface {
	Health(ctx context.Context) (*embedclient.HealthResponse, error)
}

// checkEmbeddingService logs what the embedding service reports. Failures
// are only logged: files whose embedding fails are skipped by the run.
func checkEmbeddingService(ctx context.Context, client healthChecker) {
	logger := logutil.GetLogger(ctx)
	health, err := client.Health(ctx)
	if err != nil {
		logger.Warn("embedding service health check failed", zap.Error(err))
		return
	}
	logger.Info("embedding service ready",
		zap.String("model", health.Model),
		zap.Int("dimension", health.EmbeddingDim),
	)
}

// runScheduled indexes once right away, then on every tick of spec until ctx
// is cancelled.
func runScheduled(ctx context.Context, scheduler schedule.Scheduler, j schedule.Job, spec string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("schedule", spec))
	if err := scheduler.AddJob(j, spec); err != nil {
		return err
	}
	if err := schedule.RunJob(ctx, j); err != nil {
		logger.Error("initial reindex failed", zap.Error(err))
	}
	scheduler.Start(ctx)
	logger.Info("scheduled reindex running")
	<-ctx.Done()
	logger.Info("stopping scheduler")
	scheduler.Stop()
	return nil
}

func printReport(out io.Writer, report *model.ReindexReport) {
	fmt.Fprintln(out, "Reindex complete:")
	fmt.Fprintf(out, "  Files processed: %d\n", report.FilesProcessed)
	fmt.Fprintf(out, "  Chunks indexed: %d\n", report.ChunksIndexed)
	fmt.Fprintf(out, "  Total memories in DB: %d\n", report.TotalMemories)
	for _, skipped := range report.Skipped {
		fmt.Fprintf(out, "  Skipped %s (%s)\n", skipped.File, skipped.Reason)
	}
}
