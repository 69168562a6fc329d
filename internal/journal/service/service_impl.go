package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/exactsync/internal/clock"
	"github.com/smallbiznis/exactsync/internal/journal/domain"
	"github.com/smallbiznis/exactsync/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPageSize = 20

type Params struct {
	fx.In

	DB    *gorm.DB `optional:"true"`
	Repo  domain.Repository
	Node  *snowflake.Node
	Clock clock.Clock
	Log   *zap.Logger
}

type Service struct {
	db    *gorm.DB
	repo  domain.Repository
	node  *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func New(p Params) domain.Journal {
	return &Service{
		db:    p.DB,
		repo:  p.Repo,
		node:  p.Node,
		clock: p.Clock,
		log:   p.Log.Named("journal.service"),
	}
}

// Migrate creates the runs table when the journal is enabled.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&domain.Run{})
}

func (s *Service) Enabled() bool {
	return s.db != nil
}

func (s *Service) Record(ctx context.Context, run domain.Run) error {
	if s.db == nil {
		return nil
	}
	if run.ID == 0 {
		run.ID = s.node.Generate()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = s.clock.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	if err := s.repo.Insert(ctx, s.db, &run); err != nil {
		s.log.Error("failed to record sync run",
			zap.String("workflow", run.Workflow),
			zap.String("external_ref", run.ExternalRef),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Run, *pagination.PageInfo, error) {
	if s.db == nil {
		return []*domain.Run{}, &pagination.PageInfo{}, nil
	}

	var before snowflake.ID
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, domain.ErrInvalidPageToken
		}
		before, err = snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, nil, domain.ErrInvalidPageToken
		}
	}

	limit := page.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	runs, err := s.repo.List(ctx, s.db, filter, before, limit+1)
	if err != nil {
		return nil, nil, err
	}

	return pagination.Page(runs, limit, func(r *domain.Run) pagination.Cursor {
		return pagination.Cursor{ID: r.ID.String()}
	})
}
