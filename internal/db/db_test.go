package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/vmemory/internal/config"
)

func TestDSN(t *testing.T) {
	require.Equal(t,
		"host=localhost port=5432 dbname=vector_memory sslmode=disable user=aister",
		DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, DBName: "vector_memory", User: "aister"}),
	)
	require.Equal(t,
		`host=db port=5433 dbname=mem sslmode=require user=me password='p a\'ss'`,
		DSN(config.DatabaseConfig{Host: "db", Port: 5433, DBName: "mem", User: "me", Password: "p a'ss", SSLMode: "require"}),
	)
	require.Equal(t, "postgres://x@y/z", DSN(config.DatabaseConfig{DSN: "postgres://x@y/z", Host: "ignored"}))
}

func TestMigrationsEmbedded(t *testing.T) {
	content, err := migrationsFS.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	require.Contains(t, string(content), "CREATE EXTENSION IF NOT EXISTS vector")
	require.Contains(t, string(content), "indexed_files")
}
