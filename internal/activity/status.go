package activity

import "fmt"

// Status はエージェント一覧で表示する稼働状態。
type Status string

const (
	StatusActive  Status = "Active"
	StatusIdle    Status = "Idle"
	StatusOffline Status = "Offline"
)

// StatusInput は状態判定に必要な情報。
type StatusInput struct {
	UserID   string
	CallerID string
	Hours    Hours
}

// StatusPolicy は稼働状態の判定方式。1つのレポート内では単一の方式のみを使用する。
type StatusPolicy interface {
	Name() string
	Status(in StatusInput) Status
}

// 判定方式の名前
const (
	PolicyCaller    = "caller"
	PolicyIdleRatio = "idle_ratio"
)

// CallerPolicy は呼び出し元本人のみをActive、それ以外をOfflineとする。
type CallerPolicy struct{}

// Name は方式名を返す。
func (CallerPolicy) Name() string { return PolicyCaller }

// Status は稼働状態を判定する。
func (CallerPolicy) Status(in StatusInput) Status {
	if in.CallerID != "" && in.UserID == in.CallerID {
		return StatusActive
	}
	return StatusOffline
}

// IdleRatioPolicy はアイドル時間の比率で判定する。
// 稼働時間0はOffline、アイドル比率がThresholdを超える場合はIdle、それ以外はActive。
type IdleRatioPolicy struct {
	Threshold float64
}

// Name は方式名を返す。
func (IdleRatioPolicy) Name() string { return PolicyIdleRatio }

// Status は稼働状態を判定する。
func (p IdleRatioPolicy) Status(in StatusInput) Status {
	if in.Hours.Working <= 0 {
		return StatusOffline
	}
	if in.Hours.Idle/in.Hours.Working > p.Threshold {
		return StatusIdle
	}
	return StatusActive
}

// NewStatusPolicy は方式名から判定方式を生成する。
func NewStatusPolicy(name string, idleRatioThreshold float64) (StatusPolicy, error) {
	switch name {
	case "", PolicyCaller:
		return CallerPolicy{}, nil
	case PolicyIdleRatio:
		return IdleRatioPolicy{Threshold: idleRatioThreshold}, nil
	default:
		return nil, fmt.Errorf("unknown status policy: %q", name)
	}
}
