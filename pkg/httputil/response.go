package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// kindStatus maps application error kinds to HTTP statuses. StaleState maps
// to 409 so clients know to re-read and retry; the rest are terminal for the
// request.
var kindStatus = map[apperrors.Kind]int{
	apperrors.KindNotFound:          http.StatusNotFound,
	apperrors.KindBadRequest:        http.StatusBadRequest,
	apperrors.KindForbidden:         http.StatusForbidden,
	apperrors.KindInvalidTransition: http.StatusConflict,
	apperrors.KindInvalidSlot:       http.StatusUnprocessableEntity,
	apperrors.KindEmptyCart:         http.StatusUnprocessableEntity,
	apperrors.KindPaymentRequired:   http.StatusPaymentRequired,
	apperrors.KindStaleState:        http.StatusConflict,
	apperrors.KindUnavailable:       http.StatusServiceUnavailable,
}

// StatusForError returns the HTTP status for err, or 0 for non-application
// errors.
func StatusForError(err error) int {
	if status, ok := kindStatus[apperrors.KindOf(err)]; ok {
		return status
	}
	return 0
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response for a newly created resource
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	respErr := &Error{Message: "Internal server error"}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if s, ok := kindStatus[appErr.Kind]; ok {
			status = s
		}
		respErr.Kind = string(appErr.Kind)
		respErr.Message = appErr.Message
	}

	c.JSON(status, Response{
		Success: false,
		Error:   respErr,
	})
}
