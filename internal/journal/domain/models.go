package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Run is the audit record of one orchestrator call. It records the outcome
// and the resolved ERP ids, never the order itself.
type Run struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Workflow     string            `gorm:"type:varchar(32);not null;index" json:"workflow"`
	UserID       string            `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Division     string            `gorm:"type:varchar(32)" json:"division"`
	ExternalRef  string            `gorm:"column:external_ref;type:varchar(128);index" json:"external_ref"`
	State        string            `gorm:"type:varchar(32);not null" json:"state"`
	Outcome      string            `gorm:"type:varchar(16);not null;index" json:"outcome"`
	FailedStep   string            `gorm:"column:failed_step;type:varchar(32)" json:"failed_step,omitempty"`
	ErrorKind    string            `gorm:"column:error_kind;type:varchar(32)" json:"error_kind,omitempty"`
	ErrorMessage string            `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	OrderNumber  int64             `gorm:"column:order_number" json:"order_number,omitempty"`
	Refs         datatypes.JSONMap `gorm:"column:refs" json:"refs,omitempty"`
	StartedAt    time.Time         `gorm:"not null" json:"started_at"`
	FinishedAt   time.Time         `gorm:"not null" json:"finished_at"`
}

func (Run) TableName() string { return "sync_runs" }

type ListFilter struct {
	UserID      string
	Workflow    string
	ExternalRef string
}
