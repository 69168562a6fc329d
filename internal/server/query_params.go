package server

import (
	"strings"

	"github.com/smallbiznis/exactsync/pkg/db/pagination"
)

const maxPageSize = 250

// parseFields splits a comma separated $select list. An empty value yields
// nil so the service falls back to its default field set.
func parseFields(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	var fields []string
	for _, part := range strings.Split(trimmed, ",") {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, part)
		}
	}
	return fields
}

func validPagination(page pagination.Pagination) bool {
	return page.PageSize >= 1 && page.PageSize <= maxPageSize
}
