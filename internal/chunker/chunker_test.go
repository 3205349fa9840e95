package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		maxSize int
		want    []string
	}{
		{name: "empty", text: "", maxSize: 10, want: nil},
		{name: "whitespace only", text: "  \n\n\t\n\n ", maxSize: 10, want: nil},
		{name: "each paragraph alone", text: "A\n\nB\n\nC", maxSize: 3, want: []string{"A", "B", "C"}},
		{name: "merged", text: "A\n\nB", maxSize: 10, want: []string{"A\n\nB"}},
		{name: "trims paragraphs", text: "  A  \n\n\n\n  B\n", maxSize: 10, want: []string{"A\n\nB"}},
		{name: "exact fit", text: "AB\n\nCD", maxSize: 6, want: []string{"AB\n\nCD"}},
		{name: "one over", text: "AB\n\nCD", maxSize: 5, want: []string{"AB", "CD"}},
		{
			name:    "oversized paragraph kept whole",
			text:    "short\n\n" + strings.Repeat("x", 20) + "\n\ntail",
			maxSize: 10,
			want:    []string{"short", strings.Repeat("x", 20), "tail"},
		},
		{
			name:    "single line breaks stay inside a paragraph",
			text:    "line one\nline two\n\nnext",
			maxSize: 100,
			want:    []string{"line one\nline two\n\nnext"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ChunkText(tt.text, tt.maxSize))
		})
	}
}

func TestChunkTextCountsRunes(t *testing.T) {
	// 3 runes each, 9 bytes each.
	chunks := ChunkText("日本語\n\n中文字", 8)
	require.Equal(t, []string{"日本語\n\n中文字"}, chunks)
}

func TestChunkTextPreservesParagraphs(t *testing.T) {
	var paras []string
	for i := 0; i < 40; i++ {
		paras = append(paras, strings.Repeat(string(rune('a'+i%26)), 1+(i*7)%60))
	}
	text := strings.Join(paras, "\n\n \n\n")
	for _, maxSize := range []int{1, 10, 50, 64, 200, 1000} {
		chunks := ChunkText(text, maxSize)

		var got []string
		for _, chunk := range chunks {
			got = append(got, strings.Split(chunk, "\n\n")...)
			if utf8.RuneCountInString(chunk) > maxSize {
				require.NotContains(t, chunk, "\n\n", "only a single paragraph may exceed max size %d", maxSize)
			}
		}
		require.Equal(t, paras, got, "max size %d", maxSize)
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	text := "alpha\n\nbeta\n\ngamma\n\ndelta"
	require.Equal(t, ChunkText(text, 12), ChunkText(text, 12))
}

func TestTitle(t *testing.T) {
	require.Equal(t, "Long-term memory", Title("intro text\n\n# Long-term memory\n\n## Details\n"))
	require.Equal(t, "Second level", Title("## Second level\n\nbody"))
	require.Equal(t, "", Title("no headings here\n\njust text"))
	require.Equal(t, "", Title(""))
}
