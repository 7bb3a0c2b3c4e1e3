package activity

import (
	"iter"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/timewindow"
)

// Buckets は期間内の暦日ごとの集計用バケットを保持する。
// 1回のレポート計算の間だけ使用する一時的な構造で、並行利用は想定しない。
type Buckets struct {
	agg    *Aggregator
	window timewindow.Window
	days   []DayTotals
}

// NewBuckets はstartからendInclusiveまでの全暦日について空のバケットを生成する。
func (a *Aggregator) NewBuckets(start, endInclusive time.Time) *Buckets {
	b := &Buckets{
		agg:    a,
		window: timewindow.RangeWindow(start, endInclusive),
		days:   make([]DayTotals, 0, timewindow.DayCount(start, endInclusive)),
	}
	for d := range timewindow.Days(start, endInclusive) {
		b.days = append(b.days, DayTotals{Date: d})
	}
	return b
}

// Window はバケット全体の集計期間を返す。
func (b *Buckets) Window() timewindow.Window {
	return b.window
}

// AddSession はセッションの稼働時間とアイドル時間を暦日ごとに分割して各バケットに加算する。
// セッション数は、セッションが属する日すべてでそれぞれ1として数える。
func (b *Buckets) AddSession(s *model.Session, now time.Time) {
	end, ok := b.agg.sessionEnd(s, now)
	if !ok || len(b.days) == 0 || !b.window.Touches(s.LoginAt, end) {
		return
	}

	first, _ := b.index(b.window.Clamp(s.LoginAt))
	last, ok := b.index(b.window.Clamp(end))
	if !ok {
		last = len(b.days) - 1
	}
	for i := first; i <= last; i++ {
		if timewindow.DayWindow(b.days[i].Date).Touches(s.LoginAt, end) {
			b.days[i].Sessions++
		}
	}

	for slice := range Split(s.LoginAt, end, b.window) {
		if i, ok := b.index(slice.Day); ok {
			b.days[i].Working += slice.Duration
		}
	}

	for _, l := range s.IdleLogs {
		if !b.agg.validIdleLog(s, l) {
			continue
		}
		for slice := range Split(l.Start, l.End, b.window) {
			i, ok := b.index(slice.Day)
			if !ok || !timewindow.DayWindow(slice.Day).Touches(s.LoginAt, end) {
				continue
			}
			b.days[i].Idle += slice.Duration
		}
	}
}

// AddVisit は訪問記録を開始日のバケットに加算する。
func (b *Buckets) AddVisit(v *model.Visit) {
	if !b.window.Contains(v.StartAt) || !b.agg.validVisit(v) {
		return
	}
	i, ok := b.index(v.StartAt)
	if !ok {
		return
	}
	b.days[i].Visits++
	b.days[i].Visiting += timewindow.DayWindow(v.StartAt).ClampedDuration(v.StartAt, v.EndAt)
}

// Len はバケット数（暦日数）を返す。
func (b *Buckets) Len() int {
	return len(b.days)
}

// Totals は日付順に各バケットの集計結果を返す。
func (b *Buckets) Totals() iter.Seq[DayTotals] {
	return func(yield func(DayTotals) bool) {
		for _, d := range b.days {
			if !yield(d) {
				return
			}
		}
	}
}

// index は時刻tを含む暦日のバケット番号を返す。
func (b *Buckets) index(t time.Time) (int, bool) {
	if t.Before(b.window.Start) {
		return 0, false
	}
	i := int(timewindow.DayStart(t).Sub(b.window.Start) / timewindow.Day)
	if i >= len(b.days) {
		return 0, false
	}
	return i, true
}
