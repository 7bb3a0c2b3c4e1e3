// Package timewindow は暦日単位の期間計算と時刻のクランプを提供する。
// 日付の境界はすべてUTCで扱う。
package timewindow

import (
	"fmt"
	"iter"
	"time"
)

// Day は1暦日の長さ。UTCには夏時間がないため常に24時間となる。
const Day = 24 * time.Hour

// DateLayout はAPIで受け渡す日付の形式。
const DateLayout = "2006-01-02"

// DayStart はdateを含む暦日の00:00:00.000(UTC)を返す。
func DayStart(date time.Time) time.Time {
	u := date.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEnd はdateを含む暦日の終端（排他的上限）を返す。
func DayEnd(date time.Time) time.Time {
	return DayStart(date).Add(Day)
}

// Days はDayStart(start)からDayStart(endInclusive)までの暦日を1日ずつ返すイテレータ。
// 遅延評価で、何度でも再利用できる。endInclusiveがstartより前の日の場合は何も返さない。
func Days(start, endInclusive time.Time) iter.Seq[time.Time] {
	first := DayStart(start)
	last := DayStart(endInclusive)
	return func(yield func(time.Time) bool) {
		for d := first; !d.After(last); d = d.Add(Day) {
			if !yield(d) {
				return
			}
		}
	}
}

// DayCount はstartからendInclusiveまでの暦日数を返す（両端を含む）。
func DayCount(start, endInclusive time.Time) int {
	first := DayStart(start)
	last := DayStart(endInclusive)
	if last.Before(first) {
		return 0
	}
	return int(last.Sub(first)/Day) + 1
}

// ParseDate はYYYY-MM-DD形式の文字列をUTCの暦日として解析する。
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate は時刻をUTCのYYYY-MM-DD形式に整形する。
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
