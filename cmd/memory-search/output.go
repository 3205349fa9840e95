package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xxxsen/vmemory/internal/model"
)

const previewRunes = 200

func printResults(out io.Writer, results []model.SearchResult, asJSON bool) error {
	if asJSON {
		if results == nil {
			results = []model.SearchResult{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(results)
	}
	if len(results) == 0 {
		_, err := fmt.Fprintln(out, "No results found.")
		return err
	}
	fmt.Fprintf(out, "Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(out, "[%d] Similarity: %.3f\n", i+1, r.Similarity)
		fmt.Fprintf(out, "    Source: %s\n", r.Source)
		fmt.Fprintf(out, "    Content: %s...\n", preview(r.Content))
		fmt.Fprintln(out)
	}
	return nil
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRunes {
		return content
	}
	return string(runes[:previewRunes])
}
