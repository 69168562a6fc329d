package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	journaldomain "github.com/smallbiznis/exactsync/internal/journal/domain"
	"github.com/smallbiznis/exactsync/pkg/db/pagination"
)

// ListSyncRuns pages through the journaled runs of the session user,
// newest first.
func (s *Server) ListSyncRuns(c *gin.Context) {
	if s.journal == nil || !s.journal.Enabled() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil || !validPagination(page) {
		AbortWithError(c, newValidationError("page_size", "invalid_page_size", "page_size must be between 1 and 250"))
		return
	}

	filter := journaldomain.ListFilter{
		UserID:      sessionFrom(c).UserID,
		Workflow:    strings.TrimSpace(c.Query("workflow")),
		ExternalRef: strings.TrimSpace(c.Query("external_ref")),
	}
	runs, pageInfo, err := s.journal.List(c.Request.Context(), filter, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      runs,
		"page_info": pageInfo,
	})
}
