package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reservoireye/internal/alert"
	"github.com/reservoireye/internal/auth"
	"github.com/reservoireye/internal/models"
)

type ruleRequest struct {
	ConditionType models.ConditionType `json:"condition_type" binding:"required"`
	Threshold     *float64             `json:"threshold" binding:"required"`
}

func (s *Server) listRules(c *gin.Context) {
	reservoirID, ok := parseID(c, "id")
	if !ok {
		return
	}
	rules, err := s.ruleManager.ListRules(c.Request.Context(), reservoirID, auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (s *Server) createRule(c *gin.Context) {
	reservoirID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule, err := s.ruleManager.CreateRule(c.Request.Context(), reservoirID, auth.CurrentUser(c).ID, req.ConditionType, *req.Threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (s *Server) getRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rule, err := s.ruleManager.GetRule(c.Request.Context(), id, auth.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (s *Server) updateRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req alert.RuleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rule, err := s.ruleManager.UpdateRule(c.Request.Context(), id, auth.CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (s *Server) deleteRule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.ruleManager.DeleteRule(c.Request.Context(), id, auth.CurrentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) enableRule(c *gin.Context) {
	s.setRuleActive(c, true)
}

func (s *Server) disableRule(c *gin.Context) {
	s.setRuleActive(c, false)
}

func (s *Server) setRuleActive(c *gin.Context, active bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	rule, err := s.ruleManager.SetActive(c.Request.Context(), id, auth.CurrentUser(c).ID, active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// testRule evaluates a condition against a sample value without storing or
// sending anything.
func (s *Server) testRule(c *gin.Context) {
	var req struct {
		ruleRequest
		Value *float64 `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	triggered, err := alert.TestRule(req.ConditionType, *req.Threshold, *req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"condition_type": req.ConditionType,
		"threshold":      *req.Threshold,
		"value":          *req.Value,
		"triggered":      triggered,
	})
}
