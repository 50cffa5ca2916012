package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kart-io/logger"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/middleware"
	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/component/storage"
	"github.com/campus-io/study-buddy/pkg/extract"
	apierrors "github.com/campus-io/study-buddy/pkg/utils/errors"
)

const (
	maxUploadFileSize = 50 << 20
	maxUploadFiles    = 100
)

// UploadHandler accepts course material uploads, stores the blobs, and
// kicks off background indexing.
type UploadHandler struct {
	courses *biz.CourseService
	blobs   storage.Store
}

// NewUploadHandler creates the upload handler.
func NewUploadHandler(courses *biz.CourseService, blobs storage.Store) *UploadHandler {
	return &UploadHandler{courses: courses, blobs: blobs}
}

type uploadedFile struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	FileSize int64  `json:"fileSize"`
}

// Upload handles POST /v1/files/upload. Multipart form fields: courseId
// plus one or more "files" parts. Indexing of each stored file runs in
// the background; the response returns as soon as the blobs are saved.
func (h *UploadHandler) Upload(c *gin.Context) {
	user := middleware.UserFrom(c)

	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, apierrors.ErrInvalidParam.WithCause(err))
		return
	}

	courseID := c.PostForm("courseId")
	if courseID == "" {
		writeError(c, apierrors.ErrInvalidParam.WithMessage("courseId is required"))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		writeError(c, apierrors.ErrUploadNoFiles)
		return
	}
	if len(files) > maxUploadFiles {
		writeError(c, apierrors.ErrInvalidParam.WithMessagef("Too many files: at most %d per upload", maxUploadFiles))
		return
	}

	var uploaded []uploadedFile
	for _, header := range files {
		if header.Size > maxUploadFileSize {
			writeError(c, apierrors.ErrUploadFileSize.WithMessagef("File %s exceeds the 50MB limit", header.Filename))
			return
		}
		if !extract.IsSupported(header.Filename) {
			writeError(c, apierrors.ErrUploadFileType.WithMessagef("Unsupported file type: %s", header.Filename))
			return
		}

		src, err := header.Open()
		if err != nil {
			writeError(c, apierrors.ErrInternal.WithCause(err))
			return
		}

		obj, err := h.blobs.Save(c.Request.Context(), header.Filename, src)
		src.Close()
		if err != nil {
			writeError(c, apierrors.ErrInternal.WithCause(err))
			return
		}

		file := &model.CourseFile{
			FileID:   "file-" + uuid.NewString(),
			CourseID: courseID,
			FileName: header.Filename,
			FileURL:  obj.URL,
			FileSize: obj.Size,
			FileType: strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), "."),
		}

		if err := h.courses.AddFile(c.Request.Context(), user.ID, file); err != nil {
			if removeErr := h.blobs.Remove(c.Request.Context(), obj.Key); removeErr != nil {
				logger.Warnw("orphaned upload blob", "key", obj.Key, "error", removeErr)
			}
			if errors.Is(err, biz.ErrNotCourseOwner) {
				writeError(c, apierrors.ErrCourseNotOwned)
				return
			}
			writeError(c, err)
			return
		}

		uploaded = append(uploaded, uploadedFile{
			FileID:   file.FileID,
			FileName: file.FileName,
			FileURL:  file.FileURL,
			FileSize: file.FileSize,
		})
	}

	writeSuccess(c, http.StatusOK, gin.H{"files": uploaded})
}
