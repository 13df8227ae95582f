package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusUnauthorized, common.ErrorInvalidCredentials.Error()
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized, common.ErrorUnauthenticated.Error()
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, common.ErrorConflict.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error()
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}

func writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func bindError(c *gin.Context, err error) {
	writeError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
}
