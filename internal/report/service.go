// Package report は日次・期間・エージェント一覧の稼働レポートを計算する。
// 集計はすべてactivityパッケージの純粋関数に委ね、このパッケージは読み込みと組み立てのみを行う。
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/activitytracker/internal/activity"
	"github.com/hitoshi/activitytracker/internal/metrics"
	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/repository"
	"github.com/hitoshi/activitytracker/internal/timewindow"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxRangeDays は期間レポートで指定できる最大日数。
	DefaultMaxRangeDays = 93
	// DefaultSnapshotConcurrency はエージェント一覧で同時に集計するユーザー数。
	DefaultSnapshotConcurrency = 8
)

// Config はServiceの設定。
type Config struct {
	MaxRangeDays        int
	SnapshotConcurrency int
	// Policy はエージェント一覧の稼働状態の判定方式。nilの場合はCallerPolicyを使用する。
	Policy activity.StatusPolicy
	// Clock は現在時刻を返す関数。オープン中セッションの終了時刻として使う。
	Clock func() time.Time
}

// DailyReport は1暦日分のレポート。
type DailyReport struct {
	Date     time.Time
	Sessions int
	Visits   int
	Hours    activity.Hours
}

// AgentSnapshot はエージェント一覧の1行。
type AgentSnapshot struct {
	AgentID  string
	Name     string
	Email    string
	Sessions int
	Visits   int
	Hours    activity.Hours
	Status   activity.Status
}

// Service はレポート計算を提供する。
type Service struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	visits   repository.VisitRepository
	agg      *activity.Aggregator
	metrics  metrics.MetricsCollector
	cfg      Config
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	visits repository.VisitRepository,
	agg *activity.Aggregator,
	collector metrics.MetricsCollector,
	cfg Config,
) *Service {
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = DefaultMaxRangeDays
	}
	if cfg.SnapshotConcurrency <= 0 {
		cfg.SnapshotConcurrency = DefaultSnapshotConcurrency
	}
	if cfg.Policy == nil {
		cfg.Policy = activity.CallerPolicy{}
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if agg == nil {
		agg = activity.NewAggregator(nil)
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		users:    users,
		sessions: sessions,
		visits:   visits,
		agg:      agg,
		metrics:  collector,
		cfg:      cfg,
	}
}

// Today は現在のUTC暦日の開始時刻を返す。
func (s *Service) Today() time.Time {
	return timewindow.DayStart(s.cfg.Clock())
}

// Daily はユーザーの1暦日分のレポートを返す。
// その日に重なるセッションと、その日に開始した訪問を直接集計する。
func (s *Service) Daily(ctx context.Context, userID string, day time.Time) (*DailyReport, error) {
	defer s.observe("daily", time.Now())

	totals, err := s.dayTotals(ctx, userID, day, s.cfg.Clock())
	if err != nil {
		return nil, err
	}
	r := fromTotals(totals)
	return &r, nil
}

// Range はstartからendInclusiveまでの各暦日のレポートを日付順に返す。
// 活動のない日も0で埋めて返す。userIDが空の場合は全ユーザーの合算となる。
func (s *Service) Range(ctx context.Context, userID string, start, endInclusive time.Time) ([]DailyReport, error) {
	defer s.observe("range", time.Now())

	if err := s.validateRange(start, endInclusive); err != nil {
		return nil, err
	}

	now := s.cfg.Clock()
	buckets := s.agg.NewBuckets(start, endInclusive)
	w := buckets.Window()

	sessions, err := s.sessions.ListOverlapping(ctx, userID, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	visits, err := s.visits.List(ctx, model.VisitFilter{AgentID: userID, From: w.Start, To: w.End})
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}

	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buckets.AddSession(sess, now)
	}
	for _, v := range visits {
		buckets.AddVisit(v)
	}

	reports := make([]DailyReport, 0, buckets.Len())
	for totals := range buckets.Totals() {
		reports = append(reports, fromTotals(totals))
	}
	return reports, nil
}

// AgentsSnapshot は全ユーザーについて指定日の集計と稼働状態を返す。
// 各ユーザーの集計は独立しているため、最大SnapshotConcurrency件を並行に計算する。
// 結果の順序はユーザー一覧の順序と一致する。
func (s *Service) AgentsSnapshot(ctx context.Context, callerID string, day time.Time) ([]AgentSnapshot, error) {
	defer s.observe("agents", time.Now())

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	now := s.cfg.Clock()
	snapshots := make([]AgentSnapshot, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SnapshotConcurrency)
	for i, u := range users {
		g.Go(func() error {
			totals, err := s.dayTotals(gctx, u.ID, day, now)
			if err != nil {
				return fmt.Errorf("agent %s: %w", u.ID, err)
			}
			hours := totals.Hours()
			snapshots[i] = AgentSnapshot{
				AgentID:  u.ID,
				Name:     u.Name,
				Email:    u.Email,
				Sessions: totals.Sessions,
				Visits:   totals.Visits,
				Hours:    hours,
				Status: s.cfg.Policy.Status(activity.StatusInput{
					UserID:   u.ID,
					CallerID: callerID,
					Hours:    hours,
				}),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// PolicyName は使用中の稼働状態判定方式の名前を返す。
func (s *Service) PolicyName() string {
	return s.cfg.Policy.Name()
}

func (s *Service) dayTotals(ctx context.Context, userID string, day, now time.Time) (activity.DayTotals, error) {
	w := timewindow.DayWindow(day)

	sessions, err := s.sessions.ListOverlapping(ctx, userID, w.Start, w.End)
	if err != nil {
		return activity.DayTotals{}, fmt.Errorf("failed to load sessions: %w", err)
	}
	visits, err := s.visits.List(ctx, model.VisitFilter{AgentID: userID, From: w.Start, To: w.End})
	if err != nil {
		return activity.DayTotals{}, fmt.Errorf("failed to load visits: %w", err)
	}

	return s.agg.Day(day, sessions, visits, now), nil
}

func (s *Service) validateRange(start, endInclusive time.Time) error {
	if timewindow.DayStart(endInclusive).Before(timewindow.DayStart(start)) {
		return model.NewInvalidDateRangeError("終了日が開始日より前です")
	}
	if n := timewindow.DayCount(start, endInclusive); n > s.cfg.MaxRangeDays {
		return model.NewInvalidDateRangeError(fmt.Sprintf("期間は%d日以内で指定してください（指定: %d日）", s.cfg.MaxRangeDays, n))
	}
	return nil
}

func (s *Service) observe(kind string, started time.Time) {
	s.metrics.RecordReportLatency(kind, time.Since(started))
}

func fromTotals(t activity.DayTotals) DailyReport {
	return DailyReport{
		Date:     t.Date,
		Sessions: t.Sessions,
		Visits:   t.Visits,
		Hours:    t.Hours(),
	}
}
