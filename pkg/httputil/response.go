package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int                    `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Fields  []validator.FieldError `json:"fields,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response. Binding failures become 400s with per-field
// messages; anything that is not an AppError is reported as an internal error.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	if fields, ok := validator.Fields(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			Success: false,
			Error: &Error{
				Code:    http.StatusBadRequest,
				Type:    errors.ErrValidation.String(),
				Message: validator.Summary(fields),
				Fields:  fields,
			},
		})
		return
	}

	appErr := errors.Internal(err)
	stderrors.As(err, &appErr)

	status := appErr.HTTPStatus()
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    status,
			Type:    appErr.Code.String(),
			Message: appErr.Message,
		},
	})
}
