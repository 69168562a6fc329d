package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/exactsync/internal/clock"
	"github.com/smallbiznis/exactsync/internal/journal/domain"
	"github.com/smallbiznis/exactsync/internal/journal/repository"
	"github.com/smallbiznis/exactsync/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newJournal(t *testing.T, db *gorm.DB) (domain.Journal, *clock.FakeClock) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	return New(Params{
		DB:    db,
		Repo:  repository.Provide(),
		Node:  node,
		Clock: clk,
		Log:   zap.NewNop(),
	}), clk
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return db
}

func TestRecordAndListRuns(t *testing.T) {
	db := openDB(t)
	j, clk := newJournal(t, db)
	ctx := context.Background()
	require.True(t, j.Enabled())

	require.NoError(t, j.Record(ctx, domain.Run{
		Workflow:    "sales_order",
		UserID:      "u1",
		Division:    "123456",
		ExternalRef: "1001",
		State:       "submitted",
		Outcome:     "succeeded",
		OrderNumber: 42,
		Refs:        datatypes.JSONMap{"account_id": "a-1"},
		StartedAt:   clk.Now(),
	}))
	clk.Advance(time.Second)
	require.NoError(t, j.Record(ctx, domain.Run{
		Workflow:     "sales_order",
		UserID:       "u1",
		ExternalRef:  "1002",
		State:        "account_resolved",
		Outcome:      "failed",
		FailedStep:   "compose_lines",
		ErrorKind:    "item_not_found",
		ErrorMessage: "unknown items: X",
	}))
	require.NoError(t, j.Record(ctx, domain.Run{Workflow: "quotation", UserID: "u2", State: "submitted", Outcome: "succeeded"}))

	runs, info, err := j.List(ctx, domain.ListFilter{UserID: "u1"}, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "1002", runs[0].ExternalRef)
	assert.Equal(t, "item_not_found", runs[0].ErrorKind)
	assert.Equal(t, "1001", runs[1].ExternalRef)
	assert.Equal(t, int64(42), runs[1].OrderNumber)
	assert.Equal(t, "a-1", runs[1].Refs["account_id"])
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)

	runs, _, err = j.List(ctx, domain.ListFilter{Workflow: "quotation"}, pagination.Pagination{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "u2", runs[0].UserID)
}

func TestListPagesByCursor(t *testing.T) {
	db := openDB(t)
	j, _ := newJournal(t, db)
	ctx := context.Background()

	for _, ref := range []string{"1", "2", "3"} {
		require.NoError(t, j.Record(ctx, domain.Run{Workflow: "sales_order", UserID: "u1", ExternalRef: ref, State: "submitted", Outcome: "succeeded"}))
	}

	first, info, err := j.List(ctx, domain.ListFilter{}, pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, info.HasMore)
	require.NotEmpty(t, info.NextPageToken)

	second, info, err := j.List(ctx, domain.ListFilter{}, pagination.Pagination{PageSize: 2, PageToken: info.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.False(t, info.HasMore)
	assert.Equal(t, "1", second[0].ExternalRef)
}

func TestInvalidPageToken(t *testing.T) {
	j, _ := newJournal(t, openDB(t))

	_, _, err := j.List(context.Background(), domain.ListFilter{}, pagination.Pagination{PageToken: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestDisabledJournalDropsRuns(t *testing.T) {
	j, _ := newJournal(t, nil)
	ctx := context.Background()

	assert.False(t, j.Enabled())
	require.NoError(t, j.Record(ctx, domain.Run{Workflow: "sales_order", UserID: "u1"}))
	runs, info, err := j.List(ctx, domain.ListFilter{}, pagination.Pagination{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.False(t, info.HasMore)
}
