package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/brookside/clinic-portal/pkg/httputil"
)

// HealthCheck reports liveness; readiness is the deployment's concern.
func HealthCheck(c *gin.Context) {
	httputil.RespondWithSuccess(c, gin.H{"status": "healthy"})
}
