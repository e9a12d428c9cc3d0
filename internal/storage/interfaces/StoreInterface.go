package interfaces

import (
	"context"
	"followtrack/internal/models"
	"time"
)

// HistoryStoreInterface keeps the latest follower snapshot and the daily
// count window of every tracked account.
type HistoryStoreInterface interface {
	SaveSnapshot(ctx context.Context, accountID string, followers []models.FollowerRecord) error
	SaveSnapshotAt(ctx context.Context, accountID string, followers []models.FollowerRecord, at time.Time) error
	GetSnapshot(ctx context.Context, accountID string) (models.Snapshot, bool, error)
	UpsertDailyCount(ctx context.Context, accountID string, count int, date string) error
	GetHistory(ctx context.Context, accountID string) ([]models.DailyCountRecord, error)
	Accounts(ctx context.Context) ([]string, error)
}

type SessionStoreInterface interface {
	SaveSession(ctx context.Context, username, token string) error
	LoadSession(ctx context.Context) (models.Session, bool, error)
	ClearSession(ctx context.Context) error
}
