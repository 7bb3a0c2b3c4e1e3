package activity

import (
	"testing"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
)

// TestAggregator_Day_WorkdayScenario は9時〜17時のセッションに7分のアイドルがある場合の集計を検証する。
func TestAggregator_Day_WorkdayScenario(t *testing.T) {
	agg := newTestAggregator()
	s := closedSession(t, "s1", "2024-01-01T09:00:00Z", "2024-01-01T17:00:00Z",
		model.IdleLog{Start: ts(t, "2024-01-01T10:00:00Z"), End: ts(t, "2024-01-01T10:07:00Z")},
	)

	totals := agg.Day(ts(t, "2024-01-01T00:00:00Z"), []*model.Session{s}, nil, ts(t, "2024-01-02T12:00:00Z"))
	h := totals.Hours()

	if h.Working != 8.00 {
		t.Errorf("Working = %v, want 8.00", h.Working)
	}
	if h.Idle != 0.12 {
		t.Errorf("Idle = %v, want 0.12", h.Idle)
	}
	if h.Active != 7.88 {
		t.Errorf("Active = %v, want 7.88", h.Active)
	}
	if totals.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", totals.Sessions)
	}
}

func TestAggregator_Day_OpenSessionUsesNow(t *testing.T) {
	agg := newTestAggregator()
	s := &model.Session{ID: "open", LoginAt: ts(t, "2024-01-01T09:00:00Z")}

	totals := agg.Day(ts(t, "2024-01-01T00:00:00Z"), []*model.Session{s}, nil, ts(t, "2024-01-01T10:30:00Z"))

	if totals.Working != 90*time.Minute {
		t.Errorf("Working = %v, want 1h30m", totals.Working)
	}
}

func TestAggregator_Day_ClampsToDay(t *testing.T) {
	agg := newTestAggregator()
	s := closedSession(t, "night", "2023-12-31T22:00:00Z", "2024-01-01T02:00:00Z",
		model.IdleLog{Start: ts(t, "2023-12-31T23:30:00Z"), End: ts(t, "2024-01-01T00:30:00Z")},
	)

	totals := agg.Day(ts(t, "2024-01-01T00:00:00Z"), []*model.Session{s}, nil, ts(t, "2024-01-05T00:00:00Z"))

	if totals.Working != 2*time.Hour {
		t.Errorf("Working = %v, want 2h", totals.Working)
	}
	if totals.Idle != 30*time.Minute {
		t.Errorf("Idle = %v, want 30m", totals.Idle)
	}
}

func TestAggregator_Day_SkipsMalformedRecords(t *testing.T) {
	agg := newTestAggregator()
	good := closedSession(t, "good", "2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z",
		model.IdleLog{Start: ts(t, "2024-01-01T09:40:00Z"), End: ts(t, "2024-01-01T09:30:00Z")},
	)
	bad := closedSession(t, "bad", "2024-01-01T12:00:00Z", "2024-01-01T11:00:00Z")

	totals := agg.Day(ts(t, "2024-01-01T00:00:00Z"), []*model.Session{good, bad}, nil, ts(t, "2024-01-02T00:00:00Z"))

	if totals.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", totals.Sessions)
	}
	if totals.Working != time.Hour {
		t.Errorf("Working = %v, want 1h", totals.Working)
	}
	if totals.Idle != 0 {
		t.Errorf("Idle = %v, want 0", totals.Idle)
	}
}

func TestAggregator_Day_IgnoresSessionsOfOtherDays(t *testing.T) {
	agg := newTestAggregator()
	yesterday := closedSession(t, "y", "2023-12-31T09:00:00Z", "2024-01-01T00:00:00Z")
	tomorrow := closedSession(t, "t", "2024-01-02T00:00:00Z", "2024-01-02T01:00:00Z")

	totals := agg.Day(ts(t, "2024-01-01T00:00:00Z"), []*model.Session{yesterday, tomorrow}, nil, ts(t, "2024-01-03T00:00:00Z"))

	if totals.Sessions != 0 || totals.Working != 0 {
		t.Errorf("totals = %+v, want empty", totals)
	}
}

func TestAggregator_Day_CountsVisitsStartingThatDay(t *testing.T) {
	agg := newTestAggregator()
	visits := []*model.Visit{
		{ID: "v1", StartAt: ts(t, "2024-01-01T10:00:00Z"), EndAt: ts(t, "2024-01-01T11:30:00Z")},
		{ID: "v2", StartAt: ts(t, "2024-01-01T23:30:00Z"), EndAt: ts(t, "2024-01-02T00:30:00Z")},
		{ID: "v3", StartAt: ts(t, "2023-12-31T23:30:00Z"), EndAt: ts(t, "2024-01-01T00:30:00Z")},
		{ID: "v4", StartAt: ts(t, "2024-01-01T15:00:00Z"), EndAt: ts(t, "2024-01-01T14:00:00Z")},
	}

	totals := agg.Day(ts(t, "2024-01-01T00:00:00Z"), nil, visits, ts(t, "2024-01-02T00:00:00Z"))

	if totals.Visits != 2 {
		t.Errorf("Visits = %d, want 2", totals.Visits)
	}
	if totals.Visiting != 2*time.Hour {
		t.Errorf("Visiting = %v, want 2h", totals.Visiting)
	}
}

func TestDayTotals_Hours_ActiveMayBeNegativeFromRounding(t *testing.T) {
	totals := DayTotals{Working: 17 * time.Second, Idle: 19 * time.Second}

	h := totals.Hours()
	if h.Working != 0 || h.Idle != 0.01 {
		t.Fatalf("hours = %+v", h)
	}
	if h.Active != -0.01 {
		t.Errorf("Active = %v, want -0.01", h.Active)
	}
}
