package stats

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/middleware"
	"github.com/brookside/clinic-portal/internal/service/stats"
	"github.com/brookside/clinic-portal/pkg/httputil"
)

type Handler struct {
	service *stats.Service
}

func NewHandler(service *stats.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) AdminSummary(c *gin.Context) {
	summary, err := h.service.ComputeAdminSummary(c.Request.Context(), middleware.ActorFromContext(c), time.Now().UTC())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) PatientSummary(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	// Patients read their own summary; staff may name a patient explicitly.
	patientID := actor.ID
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid patient ID"})
			return
		}
		patientID = id
	}

	summary, err := h.service.ComputePatientSummary(c.Request.Context(), actor, patientID, time.Now().UTC())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}
