package model

// TextChunk is one bounded span of a document's text, the unit of
// embedding and retrieval. Produced by the chunker before embedding.
type TextChunk struct {
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunkIndex"`
	TokenCount int    `json:"tokenCount"`
}

// DocumentChunk is a stored chunk row: a text chunk tied to its owning
// file and course, with its embedding. Unique per (courseId, fileId,
// chunkIndex); replaced wholesale when a file is re-indexed.
type DocumentChunk struct {
	CourseID   string    `json:"courseId"`
	FileID     string    `json:"fileId"`
	FileName   string    `json:"fileName"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`
	TokenCount int       `json:"tokenCount"`
	Embedding  []float32 `json:"-"`

	// Score is the similarity score when the chunk came from a vector
	// search; zero for chunks fetched deterministically.
	Score float32 `json:"score,omitempty"`
}

// RetrievalStatus describes the outcome of a retrieval pass.
type RetrievalStatus string

const (
	// RetrievalOK means context was assembled.
	RetrievalOK RetrievalStatus = "ok"
	// RetrievalNoEmbeddings means the course has no indexed chunks yet.
	RetrievalNoEmbeddings RetrievalStatus = "no_embeddings"
	// RetrievalNoMatch means chunks exist but none were returned.
	RetrievalNoMatch RetrievalStatus = "no_match"
	// RetrievalError means the similarity search failed.
	RetrievalError RetrievalStatus = "error"
)

// RetrievalResult is the assembled context for one chat turn. Ephemeral,
// computed per request.
type RetrievalResult struct {
	Text       string          `json:"text"`
	FileCount  int             `json:"fileCount"`
	FileNames  []string        `json:"fileNames"`
	ChunkCount int             `json:"chunkCount"`
	Status     RetrievalStatus `json:"status"`
}

// IndexResult summarizes one file-indexing run.
type IndexResult struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	Chunks   int    `json:"chunks"`
}
