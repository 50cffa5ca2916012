package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/component/milvus"
)

// chunkFields are the scalar fields stored next to each embedding.
var chunkFields = []string{"course_id", "file_id", "file_name", "chunk_index", "content", "token_count"}

type chunkStore struct {
	client     *milvus.Client
	collection string
	dimension  int
}

// NewChunkStore creates a Milvus-backed chunk store over the given
// collection.
func NewChunkStore(client *milvus.Client, collection string, dimension int) ChunkStore {
	return &chunkStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}
}

// EnsureSchema creates the chunk collection and index if missing.
func (s *chunkStore) EnsureSchema(ctx context.Context) error {
	return s.client.EnsureCollection(ctx, &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "Course document chunks with embeddings",
		Dimension:   s.dimension,
		MetaFields: []milvus.MetaField{
			{Name: "course_id", DataType: entity.FieldTypeVarChar, MaxLen: 128},
			{Name: "file_id", DataType: entity.FieldTypeVarChar, MaxLen: 128},
			{Name: "file_name", DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 8192},
			{Name: "token_count", DataType: entity.FieldTypeInt64},
		},
	})
}

// CountByCourse reports how many chunks are indexed for a course.
func (s *chunkStore) CountByCourse(ctx context.Context, courseID string, fileIDs []string) (int64, error) {
	return s.client.Count(ctx, s.collection, scopeFilter(courseID, fileIDs))
}

// IntroChunks fetches the leading chunks of each file in scope, ordered
// by file name then chunk index.
func (s *chunkStore) IntroChunks(ctx context.Context, courseID string, fileIDs []string, maxIndex int) ([]model.DocumentChunk, error) {
	filter := fmt.Sprintf("%s and chunk_index <= %d", scopeFilter(courseID, fileIDs), maxIndex)

	rows, err := s.client.Query(ctx, s.collection, filter, chunkFields, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query intro chunks: %w", err)
	}

	chunks := make([]model.DocumentChunk, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, chunkFromRow(row, 0))
	}

	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].FileName != chunks[j].FileName {
			return chunks[i].FileName < chunks[j].FileName
		}
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})

	return chunks, nil
}

// MatchChunks runs a similarity search over the chunks in scope.
func (s *chunkStore) MatchChunks(ctx context.Context, courseID string, fileIDs []string, embedding []float32, topK int) ([]model.DocumentChunk, error) {
	results, err := s.client.Search(ctx, s.collection, embedding, scopeFilter(courseID, fileIDs), topK, chunkFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	chunks := make([]model.DocumentChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, chunkFromRow(r.Metadata, r.Score))
	}
	return chunks, nil
}

// ReplaceFileChunks deletes any existing chunks of the file and inserts
// the new ones.
func (s *chunkStore) ReplaceFileChunks(ctx context.Context, courseID, fileID, fileName string, chunks []model.TextChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d != %d", len(chunks), len(embeddings))
	}

	// Scope the delete to the course so a file ID reused in another
	// course keeps its chunks.
	expr := scopeFilter(courseID, []string{fileID})
	if err := s.client.DeleteByExpr(ctx, s.collection, expr); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	n := len(chunks)
	courseIDs := make([]any, n)
	fileIDs := make([]any, n)
	fileNames := make([]any, n)
	indexes := make([]any, n)
	contents := make([]any, n)
	tokenCounts := make([]any, n)
	for i, ch := range chunks {
		courseIDs[i] = courseID
		fileIDs[i] = fileID
		fileNames[i] = fileName
		indexes[i] = int64(ch.ChunkIndex)
		contents[i] = ch.Content
		tokenCounts[i] = int64(ch.TokenCount)
	}

	_, err := s.client.Insert(ctx, s.collection, &milvus.InsertData{
		Embeddings: embeddings,
		Metadata: map[string][]any{
			"course_id":   courseIDs,
			"file_id":     fileIDs,
			"file_name":   fileNames,
			"chunk_index": indexes,
			"content":     contents,
			"token_count": tokenCounts,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// DeleteFileChunks removes all chunks belonging to a file.
func (s *chunkStore) DeleteFileChunks(ctx context.Context, fileID string) error {
	return s.client.DeleteByExpr(ctx, s.collection, fmt.Sprintf("file_id == %s", quoteExpr(fileID)))
}

// DeleteCourseChunks removes all chunks belonging to a course.
func (s *chunkStore) DeleteCourseChunks(ctx context.Context, courseID string) error {
	return s.client.DeleteByExpr(ctx, s.collection, fmt.Sprintf("course_id == %s", quoteExpr(courseID)))
}

// scopeFilter builds the boolean expression narrowing rows to a course
// and, when fileIDs is non-empty, to a set of files.
func scopeFilter(courseID string, fileIDs []string) string {
	filter := fmt.Sprintf("course_id == %s", quoteExpr(courseID))
	if len(fileIDs) == 0 {
		return filter
	}

	quoted := make([]string, len(fileIDs))
	for i, id := range fileIDs {
		quoted[i] = quoteExpr(id)
	}
	return fmt.Sprintf("%s and file_id in [%s]", filter, strings.Join(quoted, ", "))
}

// quoteExpr renders a string literal for a Milvus boolean expression.
func quoteExpr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func chunkFromRow(row map[string]any, score float32) model.DocumentChunk {
	chunk := model.DocumentChunk{Score: score}
	if v, ok := row["course_id"].(string); ok {
		chunk.CourseID = v
	}
	if v, ok := row["file_id"].(string); ok {
		chunk.FileID = v
	}
	if v, ok := row["file_name"].(string); ok {
		chunk.FileName = v
	}
	if v, ok := row["content"].(string); ok {
		chunk.Content = v
	}
	if v, ok := row["chunk_index"].(int64); ok {
		chunk.ChunkIndex = int(v)
	}
	if v, ok := row["token_count"].(int64); ok {
		chunk.TokenCount = int(v)
	}
	return chunk
}
