package session

import (
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
)

// Status は生存通知に対する判定結果。
type Status string

const (
	StatusActive           Status = "active"
	StatusAutoLoggedOut    Status = "auto_logged_out"
	StatusAlreadyLoggedOut Status = "already_logged_out"
)

// PingResult は生存通知の処理結果。
type PingResult struct {
	Status Status
	// Now は生存通知を受け付けた時刻（StatusActiveの場合）。
	Now time.Time
	// LogoutAt はログアウト時刻（StatusAutoLoggedOut、StatusAlreadyLoggedOutの場合）。
	LogoutAt *time.Time
	// Inactivity は自動ログアウト時に追加したアイドル記録。
	Inactivity *model.IdleLog
}

// LogoutResult はログアウトの処理結果。
type LogoutResult struct {
	LogoutAt      time.Time
	AlreadyClosed bool
}

// applyPing はセッションに生存通知を適用する。
// 前回の生存確認からの間隔がthreshold以上であれば、その間隔をアイドル記録として追加し
// nowでログアウトさせる。ログアウト済みのセッションは変更しない。
func applyPing(s *model.Session, now time.Time, threshold time.Duration) PingResult {
	if s.IsClosed() {
		logoutAt := *s.LogoutAt
		return PingResult{Status: StatusAlreadyLoggedOut, LogoutAt: &logoutAt}
	}

	last := s.LastLiveness()
	if now.Before(last) {
		// 時計の巻き戻りで最終生存確認より前にならないようにする
		now = last
	}

	if now.Sub(last) >= threshold {
		idle := model.IdleLog{Start: last, End: now}
		s.IdleLogs = append(s.IdleLogs, idle)
		logoutAt := now
		s.LogoutAt = &logoutAt
		return PingResult{Status: StatusAutoLoggedOut, LogoutAt: &logoutAt, Inactivity: &idle}
	}

	s.LastPingAt = &now
	return PingResult{Status: StatusActive, Now: now}
}

// applyLogout はセッションをnowでログアウトさせる。
// ログアウト済みの場合は既存のログアウト時刻を変更せずに返す。
func applyLogout(s *model.Session, now time.Time) LogoutResult {
	if s.IsClosed() {
		return LogoutResult{LogoutAt: *s.LogoutAt, AlreadyClosed: true}
	}

	if last := s.LastLiveness(); now.Before(last) {
		now = last
	}
	s.LogoutAt = &now
	return LogoutResult{LogoutAt: now}
}
