// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
)

// ErrVersionConflict はセッション保存時の楽観的ロックの競合を表す。
// 読み込み後に別のリクエストがセッションを更新した場合に返される。
var ErrVersionConflict = errors.New("session version conflict")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを名前・メールアドレス順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// CreateIfNotExists はメールアドレスが未登録の場合のみユーザーを作成する。
	// 作成した場合はtrueを返す。
	CreateIfNotExists(ctx context.Context, user *model.User) (bool, error)
}

// SessionRepository は作業セッションの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// Save はsession.Versionが保存済みの値と一致する場合に限りセッションを更新する。
	// 成功時はsession.Versionを1進める。一致しない場合はErrVersionConflictを返す。
	// アイドル記録の追加とログアウト時刻の設定は1回の更新で反映される。
	Save(ctx context.Context, session *model.Session) error

	// ListOverlapping は[from, to)と重なりうるセッションを返す。
	// login_at < to かつ（未ログアウトまたは logout_at >= from）のセッションが対象。
	// userIDが空の場合は全ユーザーを対象とする。
	ListOverlapping(ctx context.Context, userID string, from, to time.Time) ([]*model.Session, error)
}

// VisitRepository は訪問記録の永続化インターフェース。
type VisitRepository interface {
	// Create は訪問記録を作成する。
	Create(ctx context.Context, visit *model.Visit) error

	// List はフィルタ条件に一致する訪問記録を開始時刻順で返す。
	List(ctx context.Context, filter model.VisitFilter) ([]*model.Visit, error)
}
