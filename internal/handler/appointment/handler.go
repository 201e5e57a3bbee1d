package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/middleware"
	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/service/appointment"
	"github.com/brookside/clinic-portal/pkg/httputil"
	"github.com/brookside/clinic-portal/pkg/validator"
)

type Handler struct {
	service   *appointment.Service
	validator *validator.Validator
}

func NewHandler(service *appointment.Service, v *validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

type requestAppointmentBody struct {
	PatientID   *uuid.UUID `json:"patient_id,omitempty"`
	ClinicianID uuid.UUID  `json:"clinician_id" validate:"required"`
	ScheduledAt time.Time  `json:"scheduled_at" validate:"required"`
	Mode        string     `json:"mode" validate:"required,oneof=in_person virtual"`
	Reason      string     `json:"reason" validate:"required,max=1000"`
}

func (h *Handler) RequestAppointment(c *gin.Context) {
	actor := middleware.ActorFromContext(c)

	var body requestAppointmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := h.validator.Validate(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	// Staff can book on a patient's behalf; patients book for themselves.
	patientID := actor.ID
	if body.PatientID != nil {
		patientID = *body.PatientID
	}

	apt, err := h.service.Request(c.Request.Context(), actor, patientID, &model.RequestAppointmentInput{
		ClinicianID: body.ClinicianID,
		ScheduledAt: body.ScheduledAt,
		Mode:        model.AppointmentMode(body.Mode),
		Reason:      body.Reason,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) ConfirmSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	apt, err := h.service.Confirm(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

type rescheduleBody struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var body rescheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := h.validator.Validate(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	apt, err := h.service.Reschedule(c.Request.Context(), middleware.ActorFromContext(c), id, body.ScheduledAt)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	apt, err := h.service.Complete(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

type cancelBody struct {
	Reason string `json:"reason" validate:"max=1000"`
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var body cancelBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
	}

	apt, err := h.service.Cancel(c.Request.Context(), middleware.ActorFromContext(c), id, body.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	apt, err := h.service.Get(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}
	if date := c.Query("start_date"); date != "" {
		if t, err := time.Parse("2006-01-02", date); err == nil {
			filters.Range.Start = t
		}
	}
	if date := c.Query("end_date"); date != "" {
		if t, err := time.Parse("2006-01-02", date); err == nil {
			filters.Range.End = t
		}
	}

	appointments, err := h.service.List(c.Request.Context(), middleware.ActorFromContext(c), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.RequestAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/confirm", h.ConfirmSchedule)
		appointments.POST("/:id/reschedule", h.Reschedule)
		appointments.POST("/:id/complete", h.Complete)
		appointments.POST("/:id/cancel", h.Cancel)
	}
}
