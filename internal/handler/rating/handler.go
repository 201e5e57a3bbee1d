package rating

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brookside/clinic-portal/internal/middleware"
	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/service/rating"
	"github.com/brookside/clinic-portal/pkg/httputil"
	"github.com/brookside/clinic-portal/pkg/validator"
)

type Handler struct {
	service   *rating.Service
	validator *validator.Validator
}

func NewHandler(service *rating.Service, v *validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

func (h *Handler) CreateRating(c *gin.Context) {
	var input model.CreateRatingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := h.validator.Validate(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	rt, err := h.service.Create(c.Request.Context(), middleware.ActorFromContext(c), &input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, rt)
}

func (h *Handler) ListRatings(c *gin.Context) {
	ratings, err := h.service.List(c.Request.Context(), middleware.ActorFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ratings)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	ratings := r.Group("/ratings")
	{
		ratings.POST("", h.CreateRating)
		ratings.GET("", h.ListRatings)
	}
}
