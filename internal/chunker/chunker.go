// Package chunker splits memory documents into paragraph-aligned chunks.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const paragraphSep = "\n\n"

// ChunkText groups the blank-line separated paragraphs of text into chunks of
// at most maxSize characters, separator included. A paragraph that is longer
// than maxSize on its own becomes a single oversized chunk; it is never split.
func ChunkText(text string, maxSize int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, para := range strings.Split(text, paragraphSep) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraLen := utf8.RuneCountInString(para)
		if currentLen+paraLen+len(paragraphSep) <= maxSize {
			if currentLen > 0 {
				current.WriteString(paragraphSep)
				currentLen += len(paragraphSep)
			}
			current.WriteString(para)
			currentLen += paraLen
			continue
		}
		if currentLen > 0 {
			chunks = append(chunks, current.String())
		}
		current.Reset()
		current.WriteString(para)
		currentLen = paraLen
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// Title returns the text of the first heading in a markdown document, or ""
// when there is none.
func Title(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var title string
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title = strings.TrimSpace(string(heading.Text(source)))
		if title == "" {
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkStop, nil
	})
	return title
}
