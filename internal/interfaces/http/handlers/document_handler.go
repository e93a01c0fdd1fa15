package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/patentdesk/internal/application/patent"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/interfaces/http/middleware"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// DocumentHandler serves document uploads and removal.
type DocumentHandler struct {
	svc    patent.Service
	logger logging.Logger
}

func NewDocumentHandler(svc patent.Service, logger logging.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, logger: logger}
}

// Upload handles POST /api/patents/:id/documents. The body is multipart
// with the file under "file" and optional "name" and "type" fields; name
// defaults to the uploaded filename.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	patentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			middleware.AbortWithError(c, errors.InvalidParam("request body too large"))
		case stderrors.Is(err, http.ErrMissingFile):
			middleware.AbortWithError(c, errors.InvalidParam("file is required"))
		default:
			middleware.AbortWithError(c, errors.InvalidParam("invalid multipart body"))
		}
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, h.logger, "failed to open uploaded file", errors.Wrap(err, errors.ErrCodeUploadFailed, "failed to read upload"))
		return
	}
	defer f.Close()

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = fh.Filename
	}
	doc, err := h.svc.UploadDocument(c.Request.Context(), userID, &patent.UploadInput{
		PatentID: patentID,
		Name:     name,
		Type:     c.PostForm("type"),
		Filename: fh.Filename,
		Reader:   f,
		Size:     fh.Size,
	})
	if err != nil {
		fail(c, h.logger, "failed to upload document", err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Delete handles DELETE /api/patents/:id/documents/:documentId.
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if _, ok := pathUUID(c, "id"); !ok {
		return
	}
	docID, ok := pathUUID(c, "documentId")
	if !ok {
		return
	}
	if err := h.svc.DeleteDocument(c.Request.Context(), userID, docID); err != nil {
		fail(c, h.logger, "failed to delete document", err)
		return
	}
	c.Status(http.StatusNoContent)
}
