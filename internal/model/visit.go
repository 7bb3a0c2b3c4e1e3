// Package model はドメインモデルを定義する。
package model

import "time"

// Visit はエージェントによる訪問先（サイト）への1回の外出記録を表す。
type Visit struct {
	ID        string
	AgentID   string
	Site      string
	StartAt   time.Time
	EndAt     time.Time
	CreatedAt time.Time
}

// VisitFilter は訪問記録の検索条件。
// AgentIDが空の場合は全エージェントを対象とする。
// 開始時刻が[From, To)に含まれる訪問を返す。
type VisitFilter struct {
	AgentID string
	From    time.Time
	To      time.Time
}
