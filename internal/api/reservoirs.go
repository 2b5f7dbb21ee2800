package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reservoireye/internal/auth"
	"github.com/reservoireye/internal/store"
)

func (s *Server) listReservoirs(c *gin.Context) {
	reservoirs, err := s.reservoirs.List(c.Request.Context(), auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservoirs)
}

func (s *Server) createReservoir(c *gin.Context) {
	var req store.ReservoirInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := s.reservoirs.Create(c.Request.Context(), auth.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) getReservoir(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	r, err := s.reservoirs.Get(c.Request.Context(), id, auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) updateReservoir(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req store.ReservoirUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	r, err := s.reservoirs.Update(c.Request.Context(), id, auth.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) deleteReservoir(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.reservoirs.Delete(c.Request.Context(), id, auth.CurrentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
