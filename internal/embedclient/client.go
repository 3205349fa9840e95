// Package embedclient is the HTTP client the indexer and the search tool use
// to reach the embedding service.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErr "github.com/xxxsen/vmemory/internal/pkg/errors"
)

const passagePrefix = "passage: "

type Client struct {
	baseURL     string
	batchClient *http.Client
	queryClient *http.Client
}

// New creates a client. Batch embedding and single query embedding get
// separate timeouts.
func New(baseURL string, batchTimeout, queryTimeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		batchClient: &http.Client{Timeout: batchTimeout},
		queryClient: &http.Client{Timeout: queryTimeout},
	}
}

type embedRequest struct {
	Texts  []string `json:"texts"`
	Prefix string   `json:"prefix"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
	Dimension  int         `json:"dimension"`
}

type embedQueryRequest struct {
	Query string `json:"query"`
}

type embedQueryResponse struct {
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	Model        string `json:"model"`
	EmbeddingDim int    `json:"embedding_dim"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// EmbedPassages embeds texts with the passage prefix in one request.
func (c *Client) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	var out embedResponse
	if err := c.post(ctx, c.batchClient, "/embed", embedRequest{Texts: texts, Prefix: passagePrefix}, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", appErr.ErrModel, len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	var out embedQueryResponse
	if err := c.post(ctx, c.queryClient, "/embed_query", embedQueryRequest{Query: query}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", appErr.ErrModel)
	}
	return out.Embedding, nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	var out HealthResponse
	if err := c.do(c.queryClient, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, client *http.Client, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(client, req, out)
}

func (c *Client) do(client *http.Client, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", appErr.ErrModel, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(body))
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return fmt.Errorf("%w: %s %s: %s: %s", appErr.ErrModel, req.Method, req.URL.Path, resp.Status, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", appErr.ErrModel, req.URL.Path, err)
	}
	return nil
}
