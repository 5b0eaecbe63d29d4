package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront/internal/domain"
	"storefront/internal/platform"
)

// errorBody is the stable failure envelope every endpoint resolves to.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{Message: message})
}

// upstreamError maps a gateway failure onto the {400,404,500} contract:
// not-found stays 404, everything else is a 500 carrying the upstream detail.
func upstreamError(c *gin.Context, err error, message string) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Message: message, Error: err.Error()})
		return
	}
	var apiErr *platform.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		c.JSON(http.StatusNotFound, errorBody{Message: message, Error: apiErr.Title})
		return
	}
	c.JSON(http.StatusInternalServerError, errorBody{Message: message, Error: err.Error()})
}
