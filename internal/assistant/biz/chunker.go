package biz

import (
	"strings"

	"github.com/campus-io/study-buddy/internal/model"
)

const (
	// chunkSize targets roughly 800 estimated tokens at 4 chars/token.
	chunkSize    = 3200
	chunkOverlap = 600
	chunkStep    = chunkSize - chunkOverlap

	// minChunkLen drops trailing fragments too short to embed usefully.
	minChunkLen = 50
)

// ChunkText splits extracted document text into overlapping segments
// aligned to sentence or word boundaries. Chunk indexes are zero-based
// and contiguous over the emitted chunks.
func ChunkText(text string) []model.TextChunk {
	text = normalizeWhitespace(text)
	if text == "" {
		return nil
	}

	var chunks []model.TextChunk
	index := 0

	for start := 0; start < len(text); start += chunkStep {
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = snapBoundary(text, start, end)
		}

		content := strings.TrimSpace(text[start:end])
		if len(content) > minChunkLen {
			chunks = append(chunks, model.TextChunk{
				Content:    content,
				ChunkIndex: index,
				TokenCount: EstimateTokens(content),
			})
			index++
		}
	}

	return chunks
}

// snapBoundary moves a candidate chunk end backward to the nearest
// sentence boundary, or failing that the nearest word boundary, so
// chunks do not sever sentences or words. The sentence snap is only
// taken when it keeps at least half a step of content.
func snapBoundary(text string, start, end int) int {
	window := text[start:end]

	if idx := strings.LastIndex(window, ". "); idx >= 0 && idx+1 >= chunkStep/2 {
		return start + idx + 1
	}
	if idx := strings.LastIndex(window, " "); idx > 0 {
		return start + idx
	}
	return end
}

// EstimateTokens approximates the token count of a text as one token
// per four characters, rounded up.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// normalizeWhitespace collapses whitespace runs to single spaces and
// trims the ends.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
