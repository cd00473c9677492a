package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/workflow"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError names the offending field for validation errors. Server side
// failures are logged and answered with a generic message.
func RespondError(c *gin.Context, code int, err error) {
	resp := JSONResponse{Status: false, Message: err.Error()}

	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	if code >= http.StatusInternalServerError && code != http.StatusBadGateway && code != http.StatusGatewayTimeout {
		if ErrorLogger != nil {
			ErrorLogger.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		}
		resp.Message = http.StatusText(code)
	}
	c.JSON(code, resp)
}
