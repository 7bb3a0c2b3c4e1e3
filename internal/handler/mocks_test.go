package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/activitytracker/internal/auth"
	"github.com/hitoshi/activitytracker/internal/middleware"
	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/report"
	"github.com/hitoshi/activitytracker/internal/session"
	"github.com/hitoshi/activitytracker/internal/visit"
)

// --- モック定義 ---

type mockAuthService struct {
	loginFn       func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	currentUserFn func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewUserNotFoundError()
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

type mockSessionService struct {
	pingFn   func(ctx context.Context, sessionID string) (*session.PingResult, error)
	logoutFn func(ctx context.Context, sessionID string) (*session.LogoutResult, error)
}

func (m *mockSessionService) Ping(ctx context.Context, sessionID string) (*session.PingResult, error) {
	if m.pingFn != nil {
		return m.pingFn(ctx, sessionID)
	}
	return nil, model.NewSessionNotFoundError(sessionID)
}

func (m *mockSessionService) Logout(ctx context.Context, sessionID string) (*session.LogoutResult, error) {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil, model.NewSessionNotFoundError(sessionID)
}

type mockReportService struct {
	today      time.Time
	policy     string
	dailyFn    func(ctx context.Context, userID string, day time.Time) (*report.DailyReport, error)
	rangeFn    func(ctx context.Context, userID string, start, end time.Time) ([]report.DailyReport, error)
	snapshotFn func(ctx context.Context, callerID string, day time.Time) ([]report.AgentSnapshot, error)
}

func (m *mockReportService) Today() time.Time { return m.today }

func (m *mockReportService) PolicyName() string {
	if m.policy == "" {
		return "caller"
	}
	return m.policy
}

func (m *mockReportService) Daily(ctx context.Context, userID string, day time.Time) (*report.DailyReport, error) {
	if m.dailyFn != nil {
		return m.dailyFn(ctx, userID, day)
	}
	return &report.DailyReport{Date: day}, nil
}

func (m *mockReportService) Range(ctx context.Context, userID string, start, end time.Time) ([]report.DailyReport, error) {
	if m.rangeFn != nil {
		return m.rangeFn(ctx, userID, start, end)
	}
	return nil, nil
}

func (m *mockReportService) AgentsSnapshot(ctx context.Context, callerID string, day time.Time) ([]report.AgentSnapshot, error) {
	if m.snapshotFn != nil {
		return m.snapshotFn(ctx, callerID, day)
	}
	return nil, nil
}

type mockVisitService struct {
	recordFn func(ctx context.Context, in visit.RecordInput) (*model.Visit, error)
}

func (m *mockVisitService) Record(ctx context.Context, in visit.RecordInput) (*model.Visit, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, in)
	}
	return nil, nil
}

// --- ヘルパー ---

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("時刻の解析に失敗: %v", err)
	}
	return v
}

// withPrincipal は認証ミドルウェアを通過した状態のリクエストを返す。
func withPrincipal(r *http.Request, userID, sessionID string) *http.Request {
	return r.WithContext(middleware.ContextWithPrincipal(r.Context(), middleware.Principal{
		UserID:    userID,
		SessionID: sessionID,
		Email:     userID + "@example.com",
	}))
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

// decodeBody はレスポンスボディをmapとして読み込む。
func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

// assertErrorCode はエラーレスポンスのステータスとコードを検証する。
func assertErrorCode(t *testing.T, resp *http.Response, wantStatus int, wantCode string) {
	t.Helper()
	if resp.StatusCode != wantStatus {
		t.Errorf("status = %d, want %d", resp.StatusCode, wantStatus)
	}
	body := decodeBody(t, resp)
	if body["code"] != wantCode {
		t.Errorf("code = %v, want %s", body["code"], wantCode)
	}
	if body["ok"] != false {
		t.Errorf("ok = %v, want false", body["ok"])
	}
}
