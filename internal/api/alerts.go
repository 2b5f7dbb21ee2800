package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reservoireye/internal/auth"
)

func (s *Server) listAlerts(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}

	events, err := s.history.FindHistoryByUser(c.Request.Context(), auth.CurrentUser(c).ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
