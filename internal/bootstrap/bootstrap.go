// Package bootstrap holds the start-up sequence shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/vmemory/internal/config"
	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

// Setup loads .env (if any), the configuration and initializes logging.
func Setup(configPath string) (*config.Config, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Debug("config loaded", zap.String("config", configPath))
	return cfg, nil
}

// ReportError prints err for a command line user, with a hint naming the
// settings to check for database and embedding failures.
func ReportError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	switch {
	case appErr.IsDatabase(err):
		fmt.Fprintln(w, "hint: check the VECTOR_MEMORY_DB_* settings and that postgres is reachable")
	case appErr.IsModel(err):
		fmt.Fprintln(w, "hint: check EMBEDDING_SERVICE_URL and that embedding-service is running")
	}
}
