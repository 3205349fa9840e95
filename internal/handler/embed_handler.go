package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/vmemory/internal/pkg/response"
	"github.com/xxxsen/vmemory/internal/service"
)

type EmbedHandler struct {
	embed *service.EmbedService
}

func NewEmbedHandler(embed *service.EmbedService) *EmbedHandler {
	return &EmbedHandler{embed: embed}
}

type healthResponse struct {
	Status       string `json:"status"`
	Model        string `json:"model"`
	EmbeddingDim int    `json:"embedding_dim"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
	Dimension  int         `json:"dimension"`
}

type embedQueryResponse struct {
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
}

func (h *EmbedHandler) Health(c *gin.Context) {
	response.Success(c, healthResponse{
		Status:       "ok",
		Model:        h.embed.ModelName(),
		EmbeddingDim: h.embed.Dimension(),
	})
}

func (h *EmbedHandler) Embed(c *gin.Context) {
	fields, ok := readFields(c)
	rawTexts, present := fields["texts"]
	if !ok || !present {
		response.Error(c, http.StatusBadRequest, "Missing 'texts' field")
		return
	}
	texts, ok := decodeStringList(rawTexts)
	if !ok {
		response.Error(c, http.StatusBadRequest, "'texts' must be a list of strings")
		return
	}
	prefix := service.PassagePrefix
	if rawPrefix, present := fields["prefix"]; present {
		if isNull(rawPrefix) || json.Unmarshal(rawPrefix, &prefix) != nil {
			response.Error(c, http.StatusBadRequest, "'prefix' must be a string")
			return
		}
	}
	vecs, err := h.embed.Embed(c.Request.Context(), texts, prefix)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, embedResponse{
		Embeddings: vecs,
		Model:      h.embed.ModelName(),
		Dimension:  h.embed.Dimension(),
	})
}

func (h *EmbedHandler) EmbedQuery(c *gin.Context) {
	fields, ok := readFields(c)
	rawQuery, present := fields["query"]
	if !ok || !present {
		response.Error(c, http.StatusBadRequest, "Missing 'query' field")
		return
	}
	var query string
	if isNull(rawQuery) || json.Unmarshal(rawQuery, &query) != nil {
		response.Error(c, http.StatusBadRequest, "'query' must be a string")
		return
	}
	vec, err := h.embed.EmbedQuery(c.Request.Context(), query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, embedQueryResponse{
		Embedding: vec,
		Model:     h.embed.ModelName(),
		Dimension: h.embed.Dimension(),
	})
}

// readFields decodes the request body as a JSON object. ok is false when the
// body is empty or not an object.
func readFields(c *gin.Context) (map[string]json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

// decodeStringList accepts a JSON array whose elements are all strings.
// json.Unmarshal alone would turn null elements into "".
func decodeStringList(raw json.RawMessage) ([]string, bool) {
	var items []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil || items == nil {
		return nil, false
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		if isNull(item) || json.Unmarshal(item, &text) != nil {
			return nil, false
		}
		texts = append(texts, text)
	}
	return texts, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
