// Package visit はエージェントの訪問記録の登録を提供する。
package visit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/repository"
)

// maxSiteLength は訪問先名の最大文字数（visits.siteの列長）。
const maxSiteLength = 255

// RecordInput は訪問記録の登録内容。StartAt、EndAtがnilの場合は現在時刻を使用する。
type RecordInput struct {
	AgentID string
	Site    string
	StartAt *time.Time
	EndAt   *time.Time
}

// Service は訪問記録に関するビジネスロジックを提供する。
type Service struct {
	visits repository.VisitRepository
	clock  func() time.Time
}

// NewService はServiceを生成する。
func NewService(visits repository.VisitRepository) *Service {
	return &Service{
		visits: visits,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Record は訪問記録を検証して保存する。
func (s *Service) Record(ctx context.Context, in RecordInput) (*model.Visit, error) {
	site := strings.TrimSpace(in.Site)
	if site == "" {
		return nil, model.NewInvalidVisitError("訪問先が指定されていません")
	}
	if utf8.RuneCountInString(site) > maxSiteLength {
		return nil, model.NewInvalidVisitError(fmt.Sprintf("訪問先は%d文字以内で指定してください", maxSiteLength))
	}

	now := s.clock()
	start, end := now, now
	if in.StartAt != nil {
		start = in.StartAt.UTC()
	}
	if in.EndAt != nil {
		end = in.EndAt.UTC()
	}
	if end.Before(start) {
		return nil, model.NewInvalidVisitError("終了時刻が開始時刻より前です")
	}

	v := &model.Visit{
		ID:        uuid.New().String(),
		AgentID:   in.AgentID,
		Site:      site,
		StartAt:   start,
		EndAt:     end,
		CreatedAt: now,
	}
	if err := s.visits.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to record visit: %w", err)
	}

	slog.Info("visit recorded",
		slog.String("visit_id", v.ID),
		slog.String("agent_id", v.AgentID),
		slog.String("site", v.Site),
	)
	return v, nil
}
