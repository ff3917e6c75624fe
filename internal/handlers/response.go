package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes a JSON error envelope. Internal details stay in the
// logs; the caller only sees the message passed here.
func RespondError(c *gin.Context, status int, code string, message string) {
	if message == "" {
		message = "internal server error"
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: message,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
