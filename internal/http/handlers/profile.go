package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/zahnovia-backend/internal/http/response"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

type ProfileHandler struct {
	profiles  services.ProfileService
	dashboard services.DashboardService
}

func NewProfileHandler(profiles services.ProfileService, dashboard services.DashboardService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, dashboard: dashboard}
}

// GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// PUT /api/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req services.ProfileInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}

// GET /api/dashboard
func (h *ProfileHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Get(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, d)
}
