package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用した作業セッションリポジトリ。
// アイドル記録はセッション行のidle_logs列（JSONB配列）に埋め込んで保存する。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

const sessionColumns = `id, user_id, login_at, logout_at, last_ping_at, idle_logs, version, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	session := &model.Session{}
	var logoutAt, lastPingAt sql.NullTime
	var idleLogs []byte

	if err := row.Scan(
		&session.ID, &session.UserID, &session.LoginAt,
		&logoutAt, &lastPingAt, &idleLogs,
		&session.Version, &session.CreatedAt, &session.UpdatedAt,
	); err != nil {
		return nil, err
	}

	session.LoginAt = session.LoginAt.UTC()
	if logoutAt.Valid {
		t := logoutAt.Time.UTC()
		session.LogoutAt = &t
	}
	if lastPingAt.Valid {
		t := lastPingAt.Time.UTC()
		session.LastPingAt = &t
	}

	logs, err := decodeIdleLogs(idleLogs)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", session.ID, err)
	}
	session.IdleLogs = logs

	return session, nil
}

func decodeIdleLogs(raw []byte) ([]model.IdleLog, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var logs []model.IdleLog
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode idle logs: %w", err)
	}
	for i := range logs {
		logs[i].Start = logs[i].Start.UTC()
		logs[i].End = logs[i].End.UTC()
	}
	return logs, nil
}

func encodeIdleLogs(logs []model.IdleLog) ([]byte, error) {
	if logs == nil {
		logs = []model.IdleLog{}
	}
	raw, err := json.Marshal(logs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode idle logs: %w", err)
	}
	return raw, nil
}

// Create はセッションを作成する。session.IDは呼び出し側で採番済みであること。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	idleLogs, err := encodeIdleLogs(session.IdleLogs)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO work_sessions (id, user_id, login_at, logout_at, last_ping_at, idle_logs, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID, session.UserID, session.LoginAt,
		nullTime(session.LogoutAt), nullTime(session.LastPingAt), idleLogs,
		session.Version, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// Save はバージョン一致を条件にセッションを更新する。
// 更新行が0件の場合（他のリクエストが先に更新した、または行が存在しない）はErrVersionConflictを返す。
func (r *PostgresSessionRepo) Save(ctx context.Context, session *model.Session) error {
	idleLogs, err := encodeIdleLogs(session.IdleLogs)
	if err != nil {
		return err
	}

	updatedAt := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE work_sessions
		 SET logout_at = $1, last_ping_at = $2, idle_logs = $3, version = version + 1, updated_at = $4
		 WHERE id = $5 AND version = $6`,
		nullTime(session.LogoutAt), nullTime(session.LastPingAt), idleLogs, updatedAt,
		session.ID, session.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	session.Version++
	session.UpdatedAt = updatedAt
	return nil
}

// ListOverlapping は[from, to)と重なりうるセッションをログイン時刻順で返す。
// userIDが空の場合は全ユーザーを対象とする。
func (r *PostgresSessionRepo) ListOverlapping(ctx context.Context, userID string, from, to time.Time) ([]*model.Session, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + sessionColumns + ` FROM work_sessions
		 WHERE login_at < $1 AND (logout_at IS NULL OR logout_at >= $2)`)
	args := []any{to, from}
	if userID != "" {
		b.WriteString(` AND user_id = $3`)
		args = append(args, userID)
	}
	b.WriteString(` ORDER BY login_at, id`)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
