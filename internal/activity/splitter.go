// Package activity はセッション・アイドル記録・訪問記録を暦日ごとの稼働時間に集計する。
// このパッケージの関数はすべて永続化済みのデータに対する純粋な計算で、副作用を持たない。
package activity

import (
	"iter"
	"time"

	"github.com/hitoshi/activitytracker/internal/timewindow"
)

// DaySlice は区間のうち1暦日に属する部分の長さを表す。
type DaySlice struct {
	Day      time.Time // 暦日の開始時刻（UTC）
	Duration time.Duration
}

// Split は[start, end)を集計期間wでクランプしたうえで、重なる暦日ごとの長さを順に返す。
// 返される長さの合計はw.ClampedDuration(start, end)と厳密に一致する。
// クランプ後の長さが0の区間（不正な逆転区間を含む）は何も返さない。
func Split(start, end time.Time, w timewindow.Window) iter.Seq[DaySlice] {
	return func(yield func(DaySlice) bool) {
		pos := w.Clamp(start)
		stop := w.Clamp(end)
		for pos.Before(stop) {
			next := timewindow.DayEnd(pos)
			if stop.Before(next) {
				next = stop
			}
			if !yield(DaySlice{Day: timewindow.DayStart(pos), Duration: next.Sub(pos)}) {
				return
			}
			pos = next
		}
	}
}
