package domain

import (
	"context"

	"github.com/smallbiznis/exactsync/pkg/db/pagination"
)

// Journal records runs. A disabled journal accepts and drops every run.
type Journal interface {
	Enabled() bool
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, filter ListFilter, page pagination.Pagination) ([]*Run, *pagination.PageInfo, error)
}
