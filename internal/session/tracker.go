// Package session は作業セッションのライフサイクル（ログイン・生存通知・ログアウト）を管理する。
//
// アイドル判定はバックグラウンドのタイマーではなく、次の生存通知が届いた時点で遅延評価する。
// 同一セッションへの同時更新はリポジトリのバージョン比較による楽観的ロックで直列化し、
// 競合に負けた側は再読み込みしたうえで確定後の状態を返す。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/activitytracker/internal/metrics"
	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/repository"
)

// DefaultIdleThreshold は自動ログアウトとみなす生存通知の間隔。
const DefaultIdleThreshold = 5 * time.Minute

// maxSaveAttempts は楽観的ロック競合時の最大試行回数。
const maxSaveAttempts = 5

// TrackerConfig はTrackerの設定。
type TrackerConfig struct {
	IdleThreshold time.Duration
	// Clock は現在時刻を返す関数。nilの場合はtime.Now().UTC()を使用する。
	Clock func() time.Time
}

// Tracker はセッションの状態遷移を永続化する。
type Tracker struct {
	sessions      repository.SessionRepository
	metrics       metrics.MetricsCollector
	logger        *slog.Logger
	idleThreshold time.Duration
	clock         func() time.Time
}

// NewTracker はTrackerを生成する。
func NewTracker(
	sessions repository.SessionRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	cfg TrackerConfig,
) *Tracker {
	if cfg.IdleThreshold <= 0 {
		cfg.IdleThreshold = DefaultIdleThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		sessions:      sessions,
		metrics:       collector,
		logger:        logger,
		idleThreshold: cfg.IdleThreshold,
		clock:         cfg.Clock,
	}
}

// IdleThreshold は自動ログアウトの閾値を返す。
func (t *Tracker) IdleThreshold() time.Duration {
	return t.idleThreshold
}

// Open はユーザーの新しいセッションを現在時刻で開始する。
func (t *Tracker) Open(ctx context.Context, userID string) (*model.Session, error) {
	now := t.clock()
	s := &model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		LoginAt:   now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	t.logger.Info("session opened",
		slog.String("session_id", s.ID),
		slog.String("user_id", userID),
	)
	return s, nil
}

// Ping はセッションに生存通知を記録する。
// ログアウト済みのセッションにはエラーではなくStatusAlreadyLoggedOutを返す。
func (t *Tracker) Ping(ctx context.Context, sessionID string) (*PingResult, error) {
	now := t.clock()

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		s, err := t.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		result := applyPing(s, now, t.idleThreshold)
		if result.Status == StatusAlreadyLoggedOut {
			t.metrics.RecordPing(string(result.Status))
			return &result, nil
		}

		err = t.sessions.Save(ctx, s)
		if errors.Is(err, repository.ErrVersionConflict) {
			t.conflict(sessionID, attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}

		if result.Status == StatusAutoLoggedOut {
			t.logger.Info("session auto logged out",
				slog.String("session_id", s.ID),
				slog.String("user_id", s.UserID),
				slog.Time("idle_start", result.Inactivity.Start),
				slog.Duration("idle", result.Inactivity.Duration()),
			)
		}
		t.metrics.RecordPing(string(result.Status))
		return &result, nil
	}

	return nil, fmt.Errorf("session %s: %d attempts: %w", sessionID, maxSaveAttempts, repository.ErrVersionConflict)
}

// Logout はセッションをログアウトさせる。
// 既にログアウト済みの場合は保存済みのログアウト時刻をそのまま返す（冪等）。
func (t *Tracker) Logout(ctx context.Context, sessionID string) (*LogoutResult, error) {
	now := t.clock()

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		s, err := t.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		result := applyLogout(s, now)
		if result.AlreadyClosed {
			t.metrics.RecordLogout(true)
			return &result, nil
		}

		err = t.sessions.Save(ctx, s)
		if errors.Is(err, repository.ErrVersionConflict) {
			t.conflict(sessionID, attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}

		t.logger.Info("session logged out",
			slog.String("session_id", s.ID),
			slog.String("user_id", s.UserID),
		)
		t.metrics.RecordLogout(false)
		return &result, nil
	}

	return nil, fmt.Errorf("session %s: %d attempts: %w", sessionID, maxSaveAttempts, repository.ErrVersionConflict)
}

// Get は指定IDのセッションを返す。存在しない場合はSESSION_NOT_FOUNDエラーを返す。
func (t *Tracker) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	return t.load(ctx, sessionID)
}

func (t *Tracker) load(ctx context.Context, sessionID string) (*model.Session, error) {
	s, err := t.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if s == nil {
		return nil, model.NewSessionNotFoundError(sessionID)
	}
	return s, nil
}

func (t *Tracker) conflict(sessionID string, attempt int) {
	t.metrics.RecordVersionConflict()
	t.logger.Debug("session version conflict, reloading",
		slog.String("session_id", sessionID),
		slog.Int("attempt", attempt),
	)
}
