package activity

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("時刻の解析に失敗: %v", err)
	}
	return v
}

func ptr(v time.Time) *time.Time {
	return &v
}

func newTestAggregator() *Aggregator {
	return NewAggregator(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func closedSession(t *testing.T, id, login, logout string, idle ...model.IdleLog) *model.Session {
	t.Helper()
	return &model.Session{
		ID:       id,
		UserID:   "user-1",
		LoginAt:  ts(t, login),
		LogoutAt: ptr(ts(t, logout)),
		IdleLogs: idle,
	}
}
