package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/activitytracker/internal/model"
)

// PostgresVisitRepo はPostgreSQLを使用した訪問記録リポジトリ。
type PostgresVisitRepo struct {
	db *sql.DB
}

// NewPostgresVisitRepo はPostgresVisitRepoを生成する。
func NewPostgresVisitRepo(db *sql.DB) *PostgresVisitRepo {
	return &PostgresVisitRepo{db: db}
}

// Create は訪問記録を作成する。visit.IDは呼び出し側で採番済みであること。
func (r *PostgresVisitRepo) Create(ctx context.Context, visit *model.Visit) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO visits (id, agent_id, site, start_at, end_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		visit.ID, visit.AgentID, visit.Site, visit.StartAt, visit.EndAt, visit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

// List はフィルタ条件に一致する訪問記録を開始時刻順で返す。
func (r *PostgresVisitRepo) List(ctx context.Context, filter model.VisitFilter) ([]*model.Visit, error) {
	query, args := buildVisitQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var visits []*model.Visit
	for rows.Next() {
		v := &model.Visit{}
		if err := rows.Scan(&v.ID, &v.AgentID, &v.Site, &v.StartAt, &v.EndAt, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.StartAt = v.StartAt.UTC()
		v.EndAt = v.EndAt.UTC()
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visits: %w", err)
	}
	return visits, nil
}

// buildVisitQuery はフィルタ条件からSELECT文と引数を組み立てる。
func buildVisitQuery(filter model.VisitFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.AgentID != "" {
		add("agent_id = $%d", filter.AgentID)
	}
	if !filter.From.IsZero() {
		add("start_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("start_at < $%d", filter.To)
	}

	var b strings.Builder
	b.WriteString(`SELECT id, agent_id, site, start_at, end_at, created_at FROM visits`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY start_at, id")
	return b.String(), args
}

// compile-time interface check
var _ VisitRepository = (*PostgresVisitRepo)(nil)
