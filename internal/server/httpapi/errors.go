package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/userkeeper/internal/common"
)

const (
	detailExpired       = "Token has been expired"
	detailInvalidToken  = "Could not validate credentials"
	detailForbidden     = "Admin credentials required"
	detailLoginFailed   = "Wrong username or password"
	detailUsernameTaken = "User with that name already exists"
	detailUnavailable   = "Service unavailable (unable to connect to database)"
	detailInternal      = "Internal Server Error"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeError maps a service or guard error to its status and detail and
// aborts the chain.
func writeError(c *gin.Context, err error) {
	status, detail := http.StatusInternalServerError, detailInternal

	switch {
	case errors.Is(err, common.ErrTokenExpired):
		status, detail = http.StatusUnauthorized, detailExpired
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status, detail = http.StatusUnauthorized, detailInvalidToken
	case errors.Is(err, common.ErrLoginFailed):
		status, detail = http.StatusUnauthorized, detailLoginFailed
	case errors.Is(err, common.ErrForbidden):
		status, detail = http.StatusForbidden, detailForbidden
	case errors.Is(err, common.ErrUsernameTaken):
		status, detail = http.StatusConflict, detailUsernameTaken
	case errors.Is(err, common.ErrValidation):
		status, detail = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrStoreUnavailable):
		status, detail = http.StatusServiceUnavailable, detailUnavailable
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.Header("WWW-Authenticate", "Bearer")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}

func writeBadRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Detail: detail})
}
