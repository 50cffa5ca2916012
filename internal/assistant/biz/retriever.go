package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"golang.org/x/sync/errgroup"

	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/llm"
)

const (
	// defaultTopK is how many similarity candidates are requested.
	defaultTopK = 15

	// introMaxIndex marks the leading chunks of every file that are
	// always included: early sections tend to carry overview material
	// that similarity search misses for broad questions.
	introMaxIndex = 2

	chunkSeparator = "\n\n---\n\n"
)

// Retriever produces the course-material context for a question.
type Retriever struct {
	chunks   store.ChunkStore
	embedder llm.EmbeddingProvider
	topK     int
}

// NewRetriever creates a retriever over the given chunk store.
func NewRetriever(chunks store.ChunkStore, embedder llm.EmbeddingProvider) *Retriever {
	return &Retriever{
		chunks:   chunks,
		embedder: embedder,
		topK:     defaultTopK,
	}
}

// Retrieve assembles a bounded, deduplicated context for the question
// from the course's indexed chunks. fileIDs narrows the search to
// specific files when non-empty. Degraded outcomes are reported through
// the result status, not as errors.
func (r *Retriever) Retrieve(ctx context.Context, question, courseID string, fileIDs []string) *model.RetrievalResult {
	count, err := r.chunks.CountByCourse(ctx, courseID, fileIDs)
	if err != nil {
		logger.Errorw("failed to count course chunks", "course_id", courseID, "error", err.Error())
		return &model.RetrievalResult{Status: model.RetrievalError}
	}
	if count == 0 {
		return &model.RetrievalResult{Status: model.RetrievalNoEmbeddings}
	}

	var matched, intro []model.DocumentChunk

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vector, err := r.embedder.EmbedSingle(gctx, question)
		if err != nil {
			return fmt.Errorf("failed to embed question: %w", err)
		}
		matched, err = r.chunks.MatchChunks(gctx, courseID, fileIDs, vector, r.topK)
		if err != nil {
			return fmt.Errorf("failed to search chunks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Intro chunks are a best-effort supplement; losing them must
		// not fail the whole retrieval.
		chunks, err := r.chunks.IntroChunks(gctx, courseID, fileIDs, introMaxIndex)
		if err != nil {
			logger.Warnw("failed to fetch intro chunks", "course_id", courseID, "error", err.Error())
			return nil
		}
		intro = chunks
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Errorw("retrieval failed", "course_id", courseID, "error", err.Error())
		return &model.RetrievalResult{Status: model.RetrievalError}
	}

	merged := mergeChunks(intro, matched)
	if len(merged) == 0 {
		return &model.RetrievalResult{Status: model.RetrievalNoMatch}
	}

	return renderResult(merged)
}

// mergeChunks unions intro and similarity chunks, intro first, keeping
// the first occurrence of each (fileName, chunkIndex) key. An intro
// chunk that also matched by similarity keeps its intro position but
// carries the similarity score.
func mergeChunks(intro, matched []model.DocumentChunk) []model.DocumentChunk {
	type key struct {
		fileName   string
		chunkIndex int
	}

	scores := make(map[key]float32, len(matched))
	for _, ch := range matched {
		scores[key{ch.FileName, ch.ChunkIndex}] = ch.Score
	}

	seen := make(map[key]bool, len(intro)+len(matched))
	merged := make([]model.DocumentChunk, 0, len(intro)+len(matched))

	for _, ch := range intro {
		k := key{ch.FileName, ch.ChunkIndex}
		if seen[k] {
			continue
		}
		seen[k] = true
		if score, ok := scores[k]; ok {
			ch.Score = score
		}
		merged = append(merged, ch)
	}
	for _, ch := range matched {
		k := key{ch.FileName, ch.ChunkIndex}
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, ch)
	}

	return merged
}

// renderResult renders merged chunks into the prompt-ready context
// text and collects source-file names in first-seen order.
func renderResult(chunks []model.DocumentChunk) *model.RetrievalResult {
	sections := make([]string, 0, len(chunks))
	seenFiles := make(map[string]bool)
	fileNames := make([]string, 0, len(chunks))

	for _, ch := range chunks {
		sections = append(sections, fmt.Sprintf("[Source: %s, section %d]\n%s", ch.FileName, ch.ChunkIndex+1, ch.Content))
		if !seenFiles[ch.FileName] {
			seenFiles[ch.FileName] = true
			fileNames = append(fileNames, ch.FileName)
		}
	}

	return &model.RetrievalResult{
		Text:       strings.Join(sections, chunkSeparator),
		FileCount:  len(fileNames),
		FileNames:  fileNames,
		ChunkCount: len(chunks),
		Status:     model.RetrievalOK,
	}
}
