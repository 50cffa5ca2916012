package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	apierrors "github.com/campus-io/study-buddy/pkg/utils/errors"
)

// IndexHandler serves document indexing endpoints.
type IndexHandler struct {
	indexer *biz.Indexer
}

// NewIndexHandler creates the index handler.
func NewIndexHandler(indexer *biz.Indexer) *IndexHandler {
	return &IndexHandler{indexer: indexer}
}

type indexRequest struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	CourseID string `json:"courseId"`
}

type indexResponse struct {
	Success bool   `json:"success"`
	Chunks  int    `json:"chunks,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Index handles POST /v1/index. It fetches, chunks, embeds, and stores
// one document synchronously.
func (h *IndexHandler) Index(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}
	if req.FileID == "" || req.FileName == "" || req.FileURL == "" || req.CourseID == "" {
		writeError(c, apierrors.ErrIndexRequest)
		return
	}

	result, err := h.indexer.IndexFile(c.Request.Context(), req.FileID, req.FileName, req.FileURL, req.CourseID)
	if err != nil {
		c.JSON(apierrors.ErrIndexFailed.HTTPStatus(), indexResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, indexResponse{Success: true, Chunks: result.Chunks})
}

// DeleteFile handles DELETE /v1/index/files/:fileId. It removes every
// stored chunk of one file.
func (h *IndexHandler) DeleteFile(c *gin.Context) {
	fileID := c.Param("fileId")
	if fileID == "" {
		writeError(c, apierrors.ErrInvalidParam.WithMessage("fileId is required"))
		return
	}

	if err := h.indexer.DeleteFileChunks(c.Request.Context(), fileID); err != nil {
		writeError(c, apierrors.ErrIndexFailed.WithCause(err))
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{"fileId": fileID})
}
