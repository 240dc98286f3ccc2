package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/zahnovia-backend/internal/http/response"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

type PresetHandler struct {
	presets services.PresetService
}

func NewPresetHandler(presets services.PresetService) *PresetHandler {
	return &PresetHandler{presets: presets}
}

// GET /api/material-presets?active=true
func (h *PresetHandler) List(c *gin.Context) {
	list, err := h.presets.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"presets": list})
}

// POST /api/material-presets
func (h *PresetHandler) Create(c *gin.Context) {
	var req services.PresetInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.presets.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, p)
}

// PATCH /api/material-presets/:id
func (h *PresetHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.IsActive == nil {
		response.RespondAPIError(c, errMissingField("is_active"))
		return
	}
	if err := h.presets.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"id": id, "is_active": *req.IsActive})
}

// DELETE /api/material-presets/:id
func (h *PresetHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.presets.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
