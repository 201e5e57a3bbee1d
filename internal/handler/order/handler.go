package order

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/middleware"
	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/service/order"
	"github.com/brookside/clinic-portal/pkg/httputil"
	"github.com/brookside/clinic-portal/pkg/validator"
)

type Handler struct {
	service   *order.Service
	validator *validator.Validator
}

func NewHandler(service *order.Service, v *validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	var input model.PlaceOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := h.validator.Validate(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ord, err := h.service.Place(c.Request.Context(), middleware.ActorFromContext(c), &input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, ord)
}

type cardPaymentBody struct {
	TransactionID string       `json:"transaction_id" validate:"required"`
	Visit         *model.Visit `json:"visit,omitempty"`
}

func (h *Handler) RecordCardPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	var body cardPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := h.validator.Validate(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ord, err := h.service.RecordCardPayment(c.Request.Context(), middleware.ActorFromContext(c), id, body.TransactionID, body.Visit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ord)
}

func (h *Handler) SubmitClaim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	var claim model.InsuranceClaim
	if err := c.ShouldBindJSON(&claim); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := h.validator.Validate(&claim); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ord, err := h.service.SubmitClaim(c.Request.Context(), middleware.ActorFromContext(c), id, &claim)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ord)
}

type adjudicateBody struct {
	Decision string       `json:"decision" validate:"required,oneof=approve reject"`
	Visit    *model.Visit `json:"visit,omitempty"`
}

func (h *Handler) Adjudicate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	var body adjudicateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := h.validator.Validate(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ord, err := h.service.Adjudicate(c.Request.Context(), middleware.ActorFromContext(c), id, body.Decision == "approve", body.Visit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ord)
}

func (h *Handler) ScheduleVisit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	var visit model.Visit
	if err := c.ShouldBindJSON(&visit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ord, err := h.service.ScheduleVisit(c.Request.Context(), middleware.ActorFromContext(c), id, visit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ord)
}

func (h *Handler) AttachResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	var result model.TestResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ord, err := h.service.AttachResult(c.Request.Context(), middleware.ActorFromContext(c), id, result)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ord)
}

type cancelBody struct {
	Reason string `json:"reason" validate:"max=1000"`
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	var body cancelBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
	}

	ord, err := h.service.Cancel(c.Request.Context(), middleware.ActorFromContext(c), id, body.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ord)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid order ID"})
		return
	}

	ord, err := h.service.Get(c.Request.Context(), middleware.ActorFromContext(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ord)
}

func (h *Handler) GetOrderByNumber(c *gin.Context) {
	ord, err := h.service.GetByNumber(c.Request.Context(), middleware.ActorFromContext(c), c.Param("number"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ord)
}

func (h *Handler) ListOrders(c *gin.Context) {
	filters := &model.OrderFilters{}

	if status := c.Query("status"); status != "" {
		filters.Status = model.OrderStatus(status)
	}
	if payment := c.Query("payment_status"); payment != "" {
		filters.PaymentStatus = model.PaymentStatus(payment)
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

	orders, err := h.service.List(c.Request.Context(), middleware.ActorFromContext(c), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, orders)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders")
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/number/:number", h.GetOrderByNumber)
		orders.POST("/:id/payments/card", h.RecordCardPayment)
		orders.POST("/:id/claims", h.SubmitClaim)
		orders.POST("/:id/claims/adjudicate", h.Adjudicate)
		orders.POST("/:id/visit", h.ScheduleVisit)
		orders.POST("/:id/results", h.AttachResult)
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}
