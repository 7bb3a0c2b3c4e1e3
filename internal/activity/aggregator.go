package activity

import (
	"log/slog"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/timewindow"
)

// Aggregator は1暦日分のセッション・訪問記録を集計する。
// 不正な区間（終了が開始より前）は警告ログを出したうえで寄与0として扱い、集計全体は中断しない。
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator はAggregatorを生成する。loggerがnilの場合はslog.Default()を使用する。
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Day はdayを含む暦日について集計する。
// sessionsとvisitsはその日に関係しうる記録の上位集合でよく、日に属さない記録は除外される。
// オープン中のセッションはnowを終了時刻とみなす。
func (a *Aggregator) Day(day time.Time, sessions []*model.Session, visits []*model.Visit, now time.Time) DayTotals {
	w := timewindow.DayWindow(day)
	totals := DayTotals{Date: w.Start}

	for _, s := range sessions {
		end, ok := a.sessionEnd(s, now)
		if !ok || !w.Touches(s.LoginAt, end) {
			continue
		}

		totals.Sessions++
		totals.Working += w.ClampedDuration(s.LoginAt, end)

		for _, l := range s.IdleLogs {
			if !a.validIdleLog(s, l) {
				continue
			}
			totals.Idle += w.ClampedDuration(l.Start, l.End)
		}
	}

	for _, v := range visits {
		if !w.Contains(v.StartAt) || !a.validVisit(v) {
			continue
		}
		totals.Visits++
		totals.Visiting += w.ClampedDuration(v.StartAt, v.EndAt)
	}

	return totals
}

// sessionEnd はセッションの集計上の終了時刻を返す。
// ログアウトがログインより前の不正なセッションの場合はfalseを返す。
func (a *Aggregator) sessionEnd(s *model.Session, now time.Time) (time.Time, bool) {
	end := s.EndOr(now)
	if end.Before(s.LoginAt) {
		a.logger.Warn("malformed session interval skipped",
			slog.String("session_id", s.ID),
			slog.Time("login", s.LoginAt),
			slog.Time("end", end),
		)
		return time.Time{}, false
	}
	return end, true
}

func (a *Aggregator) validIdleLog(s *model.Session, l model.IdleLog) bool {
	if l.End.Before(l.Start) {
		a.logger.Warn("malformed idle interval skipped",
			slog.String("session_id", s.ID),
			slog.Time("start", l.Start),
			slog.Time("end", l.End),
		)
		return false
	}
	return true
}

func (a *Aggregator) validVisit(v *model.Visit) bool {
	if v.EndAt.Before(v.StartAt) {
		a.logger.Warn("malformed visit interval skipped",
			slog.String("visit_id", v.ID),
			slog.Time("start", v.StartAt),
			slog.Time("end", v.EndAt),
		)
		return false
	}
	return true
}
