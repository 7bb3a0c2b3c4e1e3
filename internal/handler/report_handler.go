package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/report"
	"github.com/hitoshi/activitytracker/internal/timewindow"
)

// defaultWeekDays はstart/endを省略した期間レポートの日数。
const defaultWeekDays = 7

// 期間レポートの集計対象
const (
	scopeSelf = "self"
	scopeAll  = "all"
)

// ReportServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	Today() time.Time
	Daily(ctx context.Context, userID string, day time.Time) (*report.DailyReport, error)
	Range(ctx context.Context, userID string, start, endInclusive time.Time) ([]report.DailyReport, error)
	AgentsSnapshot(ctx context.Context, callerID string, day time.Time) ([]report.AgentSnapshot, error)
	PolicyName() string
}

// ReportHandler は稼働レポートのHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// dailyReportResponse は1日分のレポート。
type dailyReportResponse struct {
	Date                 string  `json:"date"`
	SessionsCount        int     `json:"sessionsCount"`
	VisitsCount          int     `json:"visitsCount"`
	TotalWorkingHours    float64 `json:"totalWorkingHours"`
	TotalInactivityHours float64 `json:"totalInactivityHours"`
	TotalActiveHours     float64 `json:"totalActiveHours"`
	TotalVisitHours      float64 `json:"totalVisitHours"`
}

type dailyResponse struct {
	OK     bool                `json:"ok"`
	Report dailyReportResponse `json:"report"`
}

type weeklyResponse struct {
	OK    bool                  `json:"ok"`
	Start string                `json:"start"`
	End   string                `json:"end"`
	Scope string                `json:"scope"`
	Days  []dailyReportResponse `json:"days"`
}

// agentResponse はエージェント一覧の1行。
type agentResponse struct {
	AgentID       string  `json:"agentId"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Sessions      int     `json:"sessions"`
	Visits        int     `json:"visits"`
	WorkingHours  float64 `json:"workingHours"`
	InactiveHours float64 `json:"inactiveHours"`
	ActiveHours   float64 `json:"activeHours"`
	VisitDuration float64 `json:"visitDuration"`
	Status        string  `json:"status"`
}

type agentsResponse struct {
	OK     bool            `json:"ok"`
	Date   string          `json:"date"`
	Policy string          `json:"statusPolicy"`
	Agents []agentResponse `json:"agents"`
}

// Daily は呼び出し元の1日分のレポートを返す。dateを省略した場合は当日（UTC）。
// GET /api/reports?date=YYYY-MM-DD
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	day, err := h.dateParam(r, "date")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	rep, err := h.service.Daily(r.Context(), p.UserID, day)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dailyResponse{OK: true, Report: toDailyReportResponse(*rep)})
}

// Weekly はstartからendまでの日ごとのレポートを返す。
// start/endを両方省略した場合は当日までの7日間。scope=allで全ユーザーの合算となる。
// GET /api/reports/weekly?start=YYYY-MM-DD&end=YYYY-MM-DD[&scope=all]
func (h *ReportHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var start, end time.Time
	if q.Get("start") == "" && q.Get("end") == "" {
		end = h.service.Today()
		start = end.AddDate(0, 0, -(defaultWeekDays - 1))
	} else {
		var err error
		if start, err = requiredDate(q.Get("start"), "start"); err != nil {
			handleServiceError(w, r, err)
			return
		}
		if end, err = requiredDate(q.Get("end"), "end"); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}

	scope := q.Get("scope")
	userID := p.UserID
	switch scope {
	case "", scopeSelf:
		scope = scopeSelf
	case scopeAll:
		userID = ""
	default:
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	days, err := h.service.Range(r.Context(), userID, start, end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := weeklyResponse{
		OK:    true,
		Start: timewindow.FormatDate(start),
		End:   timewindow.FormatDate(end),
		Scope: scope,
		Days:  make([]dailyReportResponse, len(days)),
	}
	for i, d := range days {
		resp.Days[i] = toDailyReportResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Agents は全エージェントの指定日の集計と稼働状態を返す。dateを省略した場合は当日（UTC）。
// GET /api/reports/agents?date=YYYY-MM-DD
func (h *ReportHandler) Agents(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	day, err := h.dateParam(r, "date")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	snapshots, err := h.service.AgentsSnapshot(r.Context(), p.UserID, day)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := agentsResponse{
		OK:     true,
		Date:   timewindow.FormatDate(day),
		Policy: h.service.PolicyName(),
		Agents: make([]agentResponse, len(snapshots)),
	}
	for i, s := range snapshots {
		resp.Agents[i] = agentResponse{
			AgentID:       s.AgentID,
			Name:          s.Name,
			Email:         s.Email,
			Sessions:      s.Sessions,
			Visits:        s.Visits,
			WorkingHours:  s.Hours.Working,
			InactiveHours: s.Hours.Idle,
			ActiveHours:   s.Hours.Active,
			VisitDuration: s.Hours.Visiting,
			Status:        string(s.Status),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// dateParam はクエリパラメータの日付を解析する。省略時は当日を返す。
func (h *ReportHandler) dateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return h.service.Today(), nil
	}
	return requiredDate(v, name)
}

func requiredDate(v, name string) (time.Time, error) {
	if v == "" {
		return time.Time{}, model.NewInvalidDateError(name, v)
	}
	t, err := timewindow.ParseDate(v)
	if err != nil {
		return time.Time{}, model.NewInvalidDateError(name, v)
	}
	return t, nil
}

func toDailyReportResponse(d report.DailyReport) dailyReportResponse {
	return dailyReportResponse{
		Date:                 timewindow.FormatDate(d.Date),
		SessionsCount:        d.Sessions,
		VisitsCount:          d.Visits,
		TotalWorkingHours:    d.Hours.Working,
		TotalInactivityHours: d.Hours.Idle,
		TotalActiveHours:     d.Hours.Active,
		TotalVisitHours:      d.Hours.Visiting,
	}
}
