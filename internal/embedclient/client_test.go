package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","model":"e5","embedding_dim":2}`))
	})
	mux.HandleFunc("/embed", func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "passage: ", req.Prefix)
		vecs := make([][]float32, 0, len(req.Texts))
		for range req.Texts {
			vecs = append(vecs, []float32{1, 0})
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: vecs, Model: "e5", Dimension: 2})
	})
	mux.HandleFunc("/embed_query", func(w http.ResponseWriter, r *http.Request) {
		var req embedQueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Query == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Missing 'query' field"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(embedQueryResponse{Embedding: []float32{0, 1}, Model: "e5", Dimension: 2})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", time.Second, time.Second)
	ctx := context.Background()

	health, err := c.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, &HealthResponse{Status: "ok", Model: "e5", EmbeddingDim: 2}, health)

	vecs, err := c.EmbedPassages(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	vec, err := c.EmbedQuery(ctx, "what")
	require.NoError(t, err)
	require.Equal(t, []float32{0, 1}, vec)
}

func TestClientErrorBody(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, time.Second, time.Second)
	_, err := c.EmbedQuery(context.Background(), "")
	require.True(t, appErr.IsModel(err))
	require.ErrorContains(t, err, "Missing 'query' field")
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, time.Second)
	_, err := c.EmbedPassages(context.Background(), []string{"a"})
	require.True(t, appErr.IsModel(err))
	_, err = c.EmbedQuery(context.Background(), "a")
	require.True(t, appErr.IsModel(err))
}
