package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/exactsync/internal/journal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, run *domain.Run) error {
	return db.WithContext(ctx).Create(run).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, before snowflake.ID, limit int) ([]*domain.Run, error) {
	var runs []*domain.Run
	stmt := db.WithContext(ctx).Model(&domain.Run{})
	if filter.UserID != "" {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	if filter.Workflow != "" {
		stmt = stmt.Where("workflow = ?", filter.Workflow)
	}
	if filter.ExternalRef != "" {
		stmt = stmt.Where("external_ref = ?", filter.ExternalRef)
	}
	if before != 0 {
		stmt = stmt.Where("id < ?", before)
	}
	if err := stmt.Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
