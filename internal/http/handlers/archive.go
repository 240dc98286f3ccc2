package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/zahnovia-backend/internal/http/response"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

const archiveFileField = "file"

type ArchiveHandler struct {
	archive   services.ArchiveService
	maxUpload int64
}

func NewArchiveHandler(archive services.ArchiveService, maxUpload int64) *ArchiveHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &ArchiveHandler{archive: archive, maxUpload: maxUpload}
}

// GET /api/archive?category=&year=&limit=&offset=
func (h *ArchiveHandler) List(c *gin.Context) {
	docs, total, err := h.archive.List(c.Request.Context(), services.ArchiveFilter{
		Category: c.Query("category"),
		Year:     queryInt(c, "year", 0),
		Limit:    queryInt(c, "limit", 0),
		Offset:   queryInt(c, "offset", 0),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs, "total": total})
}

// POST /api/archive (multipart)
func (h *ArchiveHandler) Upload(c *gin.Context) {
	var in services.ArchiveInput
	if err := c.ShouldBind(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	fh, err := c.FormFile(archiveFileField)
	if err != nil {
		response.RespondAPIError(c, fileProblem("Bitte wählen Sie eine PDF-Datei aus."))
		return
	}
	data, err := readUpload(fh, h.maxUpload)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			response.RespondAPIError(c, fileProblem("Die Datei ist zu groß."))
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	doc, err := h.archive.Upload(c.Request.Context(), in, fh.Filename, data)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, doc)
}

// GET /api/archive/:id
func (h *ArchiveHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, err := h.archive.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, doc)
}

// DELETE /api/archive/:id
func (h *ArchiveHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.archive.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func fileProblem(msg string) error {
	return apierr.Validation(map[string]string{archiveFileField: msg})
}
