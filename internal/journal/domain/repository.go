package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, run *Run) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, before snowflake.ID, limit int) ([]*Run, error)
}
