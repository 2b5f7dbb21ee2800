package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/logger"
)

func respondError(c *gin.Context, err error) {
	status, body := apperror.JSON(err)
	if status == http.StatusInternalServerError {
		log := logger.WithRequestID(c.GetString("request_id"))
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	respondError(c, fmt.Errorf("%w: %v", apperror.ErrInvalidArgument, err))
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondError(c, fmt.Errorf("%w: invalid %s %q", apperror.ErrInvalidArgument, name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondError(c, fmt.Errorf("%w: %s must be a non-negative integer", apperror.ErrInvalidArgument, name))
		return 0, false
	}
	return v, true
}
