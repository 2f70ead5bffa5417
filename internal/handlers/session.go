package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studytrack-backend/internal/services"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type ExternalSessionHandler struct {
	tracker services.SessionTracker
	gateway services.DeviceGateway
}

func NewExternalSessionHandler(tracker services.SessionTracker, gateway services.DeviceGateway) *ExternalSessionHandler {
	return &ExternalSessionHandler{tracker: tracker, gateway: gateway}
}

type launchRequest struct {
	AppID string `json:"app_id" binding:"required"`
	// Installed is the device's self-reported install state for the app,
	// refreshed on each launch attempt.
	Installed *bool `json:"installed,omitempty"`
}

func (h *ExternalSessionHandler) Launch(c *gin.Context) {
	var req launchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Installed != nil {
		h.gateway.ReportInstalled(req.AppID, *req.Installed)
	}

	result, err := h.tracker.RequestLaunch(c.Request.Context(), req.AppID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "launch_failed", err)
		return
	}
	RespondOK(c, result)
}

type lifecycleRequest struct {
	Event string `json:"event" binding:"required"`
}

func (h *ExternalSessionHandler) Lifecycle(c *gin.Context) {
	var req lifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	event, err := services.ParseLifecycleEvent(req.Event)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.tracker.HandleEvent(c.Request.Context(), event)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lifecycle_failed", err)
		return
	}
	if result == nil {
		RespondOK(c, gin.H{"handled": false})
		return
	}
	RespondOK(c, result)
}

func (h *ExternalSessionHandler) Transcribe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	analysis, err := h.tracker.Transcribe(c.Request.Context(), id)
	if err != nil {
		// Transient provider failures are retryable by re-issuing the
		// same request; the recording stays put.
		RespondError(c, http.StatusBadGateway, "transcription_failed", err)
		return
	}
	RespondOK(c, gin.H{"analysis": analysis})
}

type acceptRequest struct {
	Analysis types.LectureAnalysis `json:"analysis" binding:"required"`
}

func (h *ExternalSessionHandler) Accept(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.tracker.AcceptAnalysis(c.Request.Context(), id, &req.Analysis); err != nil {
		RespondError(c, http.StatusInternalServerError, "accept_failed", err)
		return
	}
	RespondOK(c, gin.H{"accepted": true})
}

func (h *ExternalSessionHandler) Decline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.tracker.DeclineAnalysis(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "decline_failed", err)
		return
	}
	RespondOK(c, gin.H{"declined": true})
}

func (h *ExternalSessionHandler) List(c *gin.Context) {
	sessions, err := h.tracker.ListRecent(c.Request.Context(), 50)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}
