package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studytrack-backend/internal/services"
)

type TaxonomyHandler struct {
	taxonomy services.TaxonomyService
}

func NewTaxonomyHandler(taxonomy services.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomy: taxonomy}
}

func (h *TaxonomyHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.taxonomy.ListSubjects(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "subjects_failed", err)
		return
	}
	RespondOK(c, gin.H{"subjects": subjects})
}

func (h *TaxonomyHandler) ListTopics(c *gin.Context) {
	subjectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	topics, err := h.taxonomy.ListTopics(c.Request.Context(), subjectID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "topics_failed", err)
		return
	}
	RespondOK(c, gin.H{"topics": topics})
}

func (h *TaxonomyHandler) ProgressSummary(c *gin.Context) {
	summary, err := h.taxonomy.ProgressSummary(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "progress_failed", err)
		return
	}
	if raw := c.Query("subject_id"); raw != "" {
		subjectID, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		filtered := summary[:0]
		for _, s := range summary {
			if s.Subject != nil && s.Subject.ID == subjectID {
				filtered = append(filtered, s)
			}
		}
		summary = filtered
	}
	RespondOK(c, gin.H{"summary": summary})
}
