package biz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-io/study-buddy/internal/model"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

type fakeChunkStore struct {
	count    int64
	countErr error
	intro    []model.DocumentChunk
	introErr error
	matched  []model.DocumentChunk
	matchErr error

	mu       sync.Mutex
	replaced map[string][]model.TextChunk
	deleted  []string
}

func (f *fakeChunkStore) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeChunkStore) CountByCourse(ctx context.Context, courseID string, fileIDs []string) (int64, error) {
	return f.count, f.countErr
}

func (f *fakeChunkStore) IntroChunks(ctx context.Context, courseID string, fileIDs []string, maxIndex int) ([]model.DocumentChunk, error) {
	return f.intro, f.introErr
}

func (f *fakeChunkStore) MatchChunks(ctx context.Context, courseID string, fileIDs []string, embedding []float32, topK int) ([]model.DocumentChunk, error) {
	return f.matched, f.matchErr
}

func (f *fakeChunkStore) ReplaceFileChunks(ctx context.Context, courseID, fileID, fileName string, chunks []model.TextChunk, embeddings [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaced == nil {
		f.replaced = make(map[string][]model.TextChunk)
	}
	f.replaced[fileID] = chunks
	return nil
}

func (f *fakeChunkStore) replacedChunks(fileID string) []model.TextChunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replaced[fileID]
}

func (f *fakeChunkStore) DeleteFileChunks(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakeChunkStore) DeleteCourseChunks(ctx context.Context, courseID string) error {
	return nil
}

func chunk(fileName string, index int, content string, score float32) model.DocumentChunk {
	return model.DocumentChunk{
		CourseID:   "c1",
		FileID:     "f-" + fileName,
		FileName:   fileName,
		ChunkIndex: index,
		Content:    content,
		Score:      score,
	}
}

func TestRetrieveNoEmbeddings(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	r := NewRetriever(&fakeChunkStore{count: 0}, embedder)

	result := r.Retrieve(context.Background(), "what is this course about", "c1", nil)

	assert.Equal(t, model.RetrievalNoEmbeddings, result.Status)
	assert.Empty(t, result.Text)
	assert.Zero(t, embedder.calls)
}

func TestRetrieveCountFailure(t *testing.T) {
	r := NewRetriever(&fakeChunkStore{countErr: errors.New("boom")}, &fakeEmbedder{vector: []float32{0.1}})

	result := r.Retrieve(context.Background(), "q", "c1", nil)

	assert.Equal(t, model.RetrievalError, result.Status)
}

func TestRetrieveMergesIntroFirst(t *testing.T) {
	cs := &fakeChunkStore{
		count: 10,
		intro: []model.DocumentChunk{
			chunk("a.pdf", 0, "intro a0", 0),
			chunk("a.pdf", 1, "intro a1", 0),
			chunk("b.pdf", 0, "intro b0", 0),
		},
		matched: []model.DocumentChunk{
			chunk("a.pdf", 0, "intro a0", 0.93),
			chunk("c.pdf", 5, "match c5", 0.81),
		},
	}
	r := NewRetriever(cs, &fakeEmbedder{vector: []float32{0.1}})

	result := r.Retrieve(context.Background(), "q", "c1", nil)

	require.Equal(t, model.RetrievalOK, result.Status)
	assert.Equal(t, 4, result.ChunkCount)
	assert.Equal(t, 3, result.FileCount)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, result.FileNames)

	sections := strings.Split(result.Text, "\n\n---\n\n")
	require.Len(t, sections, 4)
	assert.Equal(t, "[Source: a.pdf, section 1]\nintro a0", sections[0])
	assert.Equal(t, "[Source: a.pdf, section 2]\nintro a1", sections[1])
	assert.Equal(t, "[Source: b.pdf, section 1]\nintro b0", sections[2])
	assert.Equal(t, "[Source: c.pdf, section 6]\nmatch c5", sections[3])
}

func TestRetrieveSearchFailure(t *testing.T) {
	cs := &fakeChunkStore{count: 5, matchErr: errors.New("index offline")}
	r := NewRetriever(cs, &fakeEmbedder{vector: []float32{0.1}})

	result := r.Retrieve(context.Background(), "q", "c1", nil)

	assert.Equal(t, model.RetrievalError, result.Status)
}

func TestRetrieveEmbedFailure(t *testing.T) {
	cs := &fakeChunkStore{count: 5}
	r := NewRetriever(cs, &fakeEmbedder{err: errors.New("credentials missing")})

	result := r.Retrieve(context.Background(), "q", "c1", nil)

	assert.Equal(t, model.RetrievalError, result.Status)
}

func TestRetrieveNoMatch(t *testing.T) {
	cs := &fakeChunkStore{count: 5}
	r := NewRetriever(cs, &fakeEmbedder{vector: []float32{0.1}})

	result := r.Retrieve(context.Background(), "q", "c1", nil)

	assert.Equal(t, model.RetrievalNoMatch, result.Status)
}

func TestRetrieveIntroFailureDegrades(t *testing.T) {
	cs := &fakeChunkStore{
		count:    5,
		introErr: errors.New("query timeout"),
		matched:  []model.DocumentChunk{chunk("a.pdf", 7, "match a7", 0.7)},
	}
	r := NewRetriever(cs, &fakeEmbedder{vector: []float32{0.1}})

	result := r.Retrieve(context.Background(), "q", "c1", nil)

	require.Equal(t, model.RetrievalOK, result.Status)
	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, []string{"a.pdf"}, result.FileNames)
}
