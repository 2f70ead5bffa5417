package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studytrack-backend/internal/services"
)

type ProfileHandler struct {
	profile services.ProfileService
}

func NewProfileHandler(profile services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profile: profile}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profile.Get(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "profile_failed", err)
		return
	}
	RespondOK(c, gin.H{"profile": profile})
}

type checkInRequest struct {
	Mood string `json:"mood"`
}

func (h *ProfileHandler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.profile.CheckIn(c.Request.Context(), req.Mood); err != nil {
		RespondError(c, http.StatusInternalServerError, "checkin_failed", err)
		return
	}
	RespondOK(c, gin.H{"checked_in": true})
}

type studySessionRequest struct {
	TopicID uint   `json:"topic_id" binding:"required"`
	Minutes int    `json:"minutes" binding:"required"`
	Kind    string `json:"kind"`
}

func (h *ProfileHandler) RecordStudySession(c *gin.Context) {
	var req studySessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	session, err := h.profile.RecordStudySession(c.Request.Context(), req.TopicID, req.Minutes, req.Kind)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "study_session_failed", err)
		return
	}
	RespondOK(c, gin.H{"session": session})
}

func listLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

func (h *ProfileHandler) ListStudySessions(c *gin.Context) {
	sessions, err := h.profile.RecentStudySessions(c.Request.Context(), listLimit(c, 50))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "study_sessions_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (h *ProfileHandler) ListDailyLogs(c *gin.Context) {
	logs, err := h.profile.RecentDailyLogs(c.Request.Context(), listLimit(c, 30))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "daily_logs_failed", err)
		return
	}
	RespondOK(c, gin.H{"logs": logs})
}
