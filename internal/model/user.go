// Package model はドメインモデルを定義する。
package model

import "time"

// User はエージェントとして活動するユーザーを表す。
// 認証情報の発行と管理は外部の責務であり、本システムはIDとメールアドレスを主に参照する。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
