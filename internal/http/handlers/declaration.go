package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/zahnovia-backend/internal/http/response"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

const referencePDFField = "pdf_file"

type DeclarationHandler struct {
	log          *logger.Logger
	declarations services.DeclarationService
	extraction   services.ExtractionService
	maxUpload    int64
}

func NewDeclarationHandler(
	log *logger.Logger,
	declarations services.DeclarationService,
	extraction services.ExtractionService,
	maxUpload int64,
) *DeclarationHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &DeclarationHandler{
		log:          log.With("handler", "DeclarationHandler"),
		declarations: declarations,
		extraction:   extraction,
		maxUpload:    maxUpload,
	}
}

// GET /api/declarations?limit=&offset=
func (h *DeclarationHandler) List(c *gin.Context) {
	list, total, err := h.declarations.List(c.Request.Context(), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"declarations": list, "total": total})
}

// POST /api/declarations
func (h *DeclarationHandler) Create(c *gin.Context) {
	var req services.DeclarationInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.declarations.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/declarations/:id
func (h *DeclarationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.declarations.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, d)
}

// PUT /api/declarations/:id
func (h *DeclarationHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req services.DeclarationInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.declarations.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// DELETE /api/declarations/:id
func (h *DeclarationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.declarations.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/declarations/:id/preview
func (h *DeclarationHandler) Preview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.declarations.Preview(c.Request.Context(), id, &buf); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// POST /api/declarations/:id/pdf
func (h *DeclarationHandler) RegeneratePDF(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.declarations.RegeneratePDF(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, d)
}

// POST /api/declarations/parse-reference-pdf
// Failures answer 400 with a flat {"error": "..."} body the form script shows
// as is.
func (h *DeclarationHandler) ParseReferencePDF(c *gin.Context) {
	fh, err := c.FormFile(referencePDFField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Keine PDF-Datei hochgeladen."})
		return
	}
	data, err := readUpload(fh, h.maxUpload)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Die PDF-Datei ist zu groß."})
			return
		}
		h.log.Warn("Reference PDF read failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Die PDF-Datei konnte nicht gelesen werden."})
		return
	}
	res, err := h.extraction.ParseReferencePDF(c.Request.Context(), data)
	if err != nil {
		if ae, ok := apierr.As(err); ok && ae.Status == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": ae.Error()})
			return
		}
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}
