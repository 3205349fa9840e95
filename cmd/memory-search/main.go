package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xxxsen/vmemory/internal/bootstrap"
	"github.com/xxxsen/vmemory/internal/db"
	"github.com/xxxsen/vmemory/internal/embedclient"
	"github.com/xxxsen/vmemory/internal/model"
	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
	"github.com/xxxsen/vmemory/internal/repo"
	"github.com/xxxsen/vmemory/internal/service"
)

type options struct {
	configPath string
	limit      int
	limitSet   bool
	threshold  float64
	threshSet  bool
	asJSON     bool
	strict     bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "memory-search <query>",
		Short:         "Search vector memory by semantic similarity",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.limitSet = cmd.Flags().Changed("limit")
			opts.threshSet = cmd.Flags().Changed("threshold")
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), strings.Join(args, " "), opts)
		},
	}

	rootCmd.Flags().IntVarP(&opts.limit, "limit", "l", 5, "max results (default: $VECTOR_MEMORY_LIMIT or 5)")
	rootCmd.Flags().Float64VarP(&opts.threshold, "threshold", "t", 0.5, "similarity threshold (default: $VECTOR_MEMORY_THRESHOLD or 0.5)")
	rootCmd.Flags().BoolVarP(&opts.asJSON, "json", "j", false, "output as JSON")
	rootCmd.Flags().BoolVar(&opts.strict, "strict", false, "fail instead of printing no results when the embedding service is unavailable")
	rootCmd.Flags().StringVar(&opts.configPath, "config", "", "path to config.json (environment variables override it)")

	if err := rootCmd.Execute(); err != nil {
		bootstrap.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(out, errOut io.Writer, query string, opts options) error {
	cfg, err := bootstrap.Setup(opts.configPath)
	if err != nil {
		return err
	}
	limit := cfg.Search.Limit
	if opts.limitSet {
		limit = opts.limit
	}
	threshold := cfg.Search.Threshold
	if opts.threshSet {
		threshold = opts.threshold
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := &lazyStore{open: func(ctx context.Context) (*sql.DB, error) {
		return db.Open(ctx, cfg.Database)
	}}
	defer store.Close()

	client := embedclient.New(cfg.Embedding.ServiceURL, cfg.Embedding.BatchTimeout(), cfg.Embedding.QueryTimeout())
	results, err := search(ctx, service.NewSearchService(store, client), query, limit, threshold, opts.strict, errOut)
	if err != nil {
		return err
	}
	return printResults(out, results, opts.asJSON)
}

type searcher interface {
	Search(ctx context.Context, query string, limit int, threshold float64) ([]model.SearchResult, error)
}

// search degrades an unavailable embedding service to an empty result set
// with a warning, unless strict is set.
func search(ctx context.Context, s searcher, query string, limit int, threshold float64, strict bool, errOut io.Writer) ([]model.SearchResult, error) {
	results, err := s.Search(ctx, query, limit, threshold)
	if err == nil {
		return results, nil
	}
	if !appErr.IsModel(err) || strict {
		return nil, err
	}
	fmt.Fprintf(errOut, "warning: embedding service unavailable, showing no results: %v\n", err)
	return nil, nil
}

// lazyStore connects to the database on the first search, so the query is
// embedded before any connection is made.
type lazyStore struct {
	open func(ctx context.Context) (*sql.DB, error)
	conn *sql.DB
}

func (s *lazyStore) Search(ctx context.Context, vec []float32, limit int, threshold float64) ([]model.SearchResult, error) {
	if s.conn == nil {
		conn, err := s.open(ctx)
		if err != nil {
			return nil, err
		}
		s.conn = conn
	}
	return repo.NewMemoryStore(s.conn).Search(ctx, vec, limit, threshold)
}

func (s *lazyStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
