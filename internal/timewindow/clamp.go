package timewindow

import "time"

// Window は[Start, End)の集計対象期間を表す。
type Window struct {
	Start time.Time
	End   time.Time
}

// DayWindow はdateを含む暦日の期間を返す。
func DayWindow(date time.Time) Window {
	start := DayStart(date)
	return Window{Start: start, End: start.Add(Day)}
}

// RangeWindow はstartの日の始まりからendInclusiveの日の終わりまでの期間を返す。
func RangeWindow(start, endInclusive time.Time) Window {
	return Window{Start: DayStart(start), End: DayEnd(endInclusive)}
}

// Clamp は時刻tを[windowStart, windowEnd]の範囲に収める。
func Clamp(t, windowStart, windowEnd time.Time) time.Time {
	if t.Before(windowStart) {
		return windowStart
	}
	if t.After(windowEnd) {
		return windowEnd
	}
	return t
}

// Clamp は時刻tをこの期間に収める。
func (w Window) Clamp(t time.Time) time.Time {
	return Clamp(t, w.Start, w.End)
}

// ClampedDuration は[a, b)のうち期間内に含まれる長さを返す。
// aがbより後の不正な入力でも負にはならず0を返す。
func (w Window) ClampedDuration(a, b time.Time) time.Duration {
	d := w.Clamp(b).Sub(w.Clamp(a))
	if d < 0 {
		return 0
	}
	return d
}

// Contains はtが[Start, End)に含まれるかどうかを返す。
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Touches は[start, end]の記録がこの期間に属するかどうかを返す。
// 期間と重なる記録に加え、期間内に開始した長さ0の記録も含める。
func (w Window) Touches(start, end time.Time) bool {
	if !start.Before(w.End) {
		return false
	}
	return end.After(w.Start) || !start.Before(w.Start)
}
