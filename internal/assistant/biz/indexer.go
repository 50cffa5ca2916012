package biz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kart-io/logger"

	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/extract"
	"github.com/campus-io/study-buddy/pkg/infra/pool"
	"github.com/campus-io/study-buddy/pkg/llm"
	"github.com/campus-io/study-buddy/pkg/utils/httpclient"
)

const fetchTimeout = 60 * time.Second

// Indexer turns uploaded files into embedded chunks in the vector
// store.
type Indexer struct {
	chunks   store.ChunkStore
	embedder llm.EmbeddingProvider
	fetcher  *httpclient.Client
	workers  *pool.Pool
}

// NewIndexer creates an indexer that runs background work on the given
// pool.
func NewIndexer(chunks store.ChunkStore, embedder llm.EmbeddingProvider, workers *pool.Pool) *Indexer {
	return &Indexer{
		chunks:   chunks,
		embedder: embedder,
		fetcher:  httpclient.NewClient(fetchTimeout, 2),
		workers:  workers,
	}
}

// IndexFile fetches, extracts, chunks, and embeds one file, then
// replaces the file's rows in the vector store. Re-running for the
// same file is idempotent.
func (ix *Indexer) IndexFile(ctx context.Context, fileID, fileName, fileURL, courseID string) (*model.IndexResult, error) {
	data, err := ix.fetchFile(ctx, fileURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file %s: %w", fileName, err)
	}

	text, err := extract.Text(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", fileName, err)
	}

	chunks := ChunkText(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no indexable content in %s (empty or unsupported document)", fileName)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	embeddings, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks of %s: %w", fileName, err)
	}

	if err := ix.chunks.ReplaceFileChunks(ctx, courseID, fileID, fileName, chunks, embeddings); err != nil {
		return nil, fmt.Errorf("failed to store chunks of %s: %w", fileName, err)
	}

	logger.Infow("indexed file",
		"course_id", courseID,
		"file_id", fileID,
		"file_name", fileName,
		"chunks", len(chunks),
	)

	return &model.IndexResult{
		FileID:   fileID,
		FileName: fileName,
		Chunks:   len(chunks),
	}, nil
}

// IndexFileAsync schedules indexing of a file in the background. The
// caller gets no completion signal; failures are logged. One file's
// failure never affects other files.
func (ix *Indexer) IndexFileAsync(fileID, fileName, fileURL, courseID string) {
	ix.workers.SubmitDetached(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := ix.IndexFile(ctx, fileID, fileName, fileURL, courseID); err != nil {
			logger.Errorw("background indexing failed",
				"course_id", courseID,
				"file_id", fileID,
				"file_name", fileName,
				"error", err.Error(),
			)
		}
	})
}

// DeleteFileChunks removes a file's rows from the vector store.
func (ix *Indexer) DeleteFileChunks(ctx context.Context, fileID string) error {
	return ix.chunks.DeleteFileChunks(ctx, fileID)
}

// DeleteCourseChunks removes all of a course's rows from the vector
// store.
func (ix *Indexer) DeleteCourseChunks(ctx context.Context, courseID string) error {
	return ix.chunks.DeleteCourseChunks(ctx, courseID)
}

func (ix *Indexer) fetchFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ix.fetcher.DoRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
