package activity

import (
	"math"
	"time"
)

// DayTotals は1暦日分の集計結果（ミリ秒精度の生の値）を表す。
type DayTotals struct {
	Date     time.Time
	Working  time.Duration
	Idle     time.Duration
	Visiting time.Duration
	Sessions int
	Visits   int
}

// Hours は時間単位に丸めた集計値を表す。
type Hours struct {
	Working  float64
	Idle     float64
	Active   float64
	Visiting float64
}

// Hours は集計値を小数第2位に丸めた時間に変換する。
// Activeは丸め後のWorkingとIdleの差で、丸め誤差により僅かに負になることがあるが補正しない。
func (t DayTotals) Hours() Hours {
	working := ToHours(t.Working)
	idle := ToHours(t.Idle)
	return Hours{
		Working:  working,
		Idle:     idle,
		Active:   Round2(working - idle),
		Visiting: ToHours(t.Visiting),
	}
}

// ToHours は期間をミリ秒単位で時間に換算し、小数第2位に丸める。
func ToHours(d time.Duration) float64 {
	return Round2(float64(d.Milliseconds()) / float64(time.Hour/time.Millisecond))
}

// Round2 は小数第2位に丸める。
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
