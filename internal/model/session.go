// Package model はドメインモデルを定義する。
package model

import "time"

// Session は1回のログインからログアウトまでの作業セッションを表す。
// LogoutAtがnilの間はオープン状態で、一度設定されると変更されない（終端状態）。
type Session struct {
	ID         string
	UserID     string
	LoginAt    time.Time
	LogoutAt   *time.Time
	LastPingAt *time.Time
	IdleLogs   []IdleLog
	// Version は楽観的排他制御のためのバージョン番号。保存のたびに1増える。
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IdleLog はセッション内で生存通知が途絶えた期間を表す。
// 追記のみで、作成後に変更されることはない。
type IdleLog struct {
	Start time.Time `json:"startTime"`
	End   time.Time `json:"endTime"`
}

// Duration はアイドル期間の長さを返す。EndがStartより前の場合は0を返す。
func (l IdleLog) Duration() time.Duration {
	if l.End.Before(l.Start) {
		return 0
	}
	return l.End.Sub(l.Start)
}

// IsClosed はセッションがログアウト済み（手動または自動）かどうかを返す。
func (s *Session) IsClosed() bool {
	return s.LogoutAt != nil
}

// LastLiveness は最後に生存が確認された時刻を返す。
// 生存通知を一度も受けていない場合はログイン時刻を返す。
func (s *Session) LastLiveness() time.Time {
	if s.LastPingAt != nil {
		return *s.LastPingAt
	}
	return s.LoginAt
}

// EndOr はセッションの終了時刻を返す。オープン中の場合はnowを返す。
func (s *Session) EndOr(now time.Time) time.Time {
	if s.LogoutAt != nil {
		return *s.LogoutAt
	}
	return now
}

// Clone はIdleLogsを含めたディープコピーを返す。
func (s *Session) Clone() *Session {
	c := *s
	if s.LogoutAt != nil {
		t := *s.LogoutAt
		c.LogoutAt = &t
	}
	if s.LastPingAt != nil {
		t := *s.LastPingAt
		c.LastPingAt = &t
	}
	c.IdleLogs = append([]IdleLog(nil), s.IdleLogs...)
	return &c
}
