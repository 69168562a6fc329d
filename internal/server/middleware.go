package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	obscontext "github.com/smallbiznis/exactsync/internal/observability/context"
)

const (
	HeaderUserID      = "X-User-ID"
	HeaderDivision    = "X-Division"
	contextSessionKey = "exact_session"
)

// SessionRequired resolves whose ERP credentials the request uses. The
// division header is optional and falls back to the configured division.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		division := strings.TrimSpace(c.GetHeader(HeaderDivision))
		if division == "" {
			division = s.cfg.Exact.Division
		}
		if division == "" || !isDigits(division) {
			AbortWithError(c, newValidationError("division", "invalid_division", "division must be numeric"))
			return
		}

		c.Set(contextSessionKey, exactdomain.Session{UserID: userID, Division: division})

		ctx := obscontext.WithUserID(c.Request.Context(), userID)
		ctx = obscontext.WithDivision(ctx, division)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func sessionFrom(c *gin.Context) exactdomain.Session {
	value, ok := c.Get(contextSessionKey)
	if !ok {
		return exactdomain.Session{}
	}
	sess, _ := value.(exactdomain.Session)
	return sess
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
