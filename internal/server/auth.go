package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type exchangeCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) GetAuthorizationURL(c *gin.Context) {
	state := strings.TrimSpace(c.Query("state"))
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"authorize_url": s.tokens.AuthorizationURL(state),
	}})
}

// ExchangeAuthorizationCode stores the first token pair of the session user
// from the code the provider appended to the redirect.
func (s *Server) ExchangeAuthorizationCode(c *gin.Context) {
	var req exchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		AbortWithError(c, newValidationError("code", "invalid_code", "code is required"))
		return
	}

	sess := sessionFrom(c)
	if err := s.tokens.ExchangeCode(c.Request.Context(), sess.UserID, strings.TrimSpace(req.Code)); err != nil {
		AbortWithError(c, err)
		return
	}
	s.log.Info("exact authorization stored", zap.String("user_id", sess.UserID))

	status, err := s.tokens.Status(c.Request.Context(), sess.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (s *Server) GetAuthorizationStatus(c *gin.Context) {
	status, err := s.tokens.Status(c.Request.Context(), sessionFrom(c).UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}
