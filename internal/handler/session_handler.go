package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/activitytracker/internal/activity"
	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/session"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	Ping(ctx context.Context, sessionID string) (*session.PingResult, error)
	Logout(ctx context.Context, sessionID string) (*session.LogoutResult, error)
}

// SessionHandler は生存通知とログアウトのHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

// sessionRequest はping/logoutのリクエストボディ。ボディは省略できる。
// sessionIdを指定する場合はトークンのセッションと一致していなければならない。
type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// inactivityResponse は自動ログアウト時に記録したアイドル期間。
type inactivityResponse struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Minutes   float64   `json:"minutes"`
}

// pingResponse はPOST /api/pingのレスポンス。
type pingResponse struct {
	OK         bool                `json:"ok"`
	Status     session.Status      `json:"status"`
	Now        *time.Time          `json:"now,omitempty"`
	LogoutTime *time.Time          `json:"logoutTime,omitempty"`
	Inactivity *inactivityResponse `json:"inactivity,omitempty"`
}

// logoutResponse はPOST /api/logoutのレスポンス。
type logoutResponse struct {
	OK            bool      `json:"ok"`
	LogoutTime    time.Time `json:"logoutTime"`
	AlreadyClosed bool      `json:"alreadyLoggedOut"`
}

// Ping は生存通知を処理する。前回の通知から閾値以上空いていた場合は自動ログアウトとなる。
// POST /api/ping
func (h *SessionHandler) Ping(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Ping(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := pingResponse{OK: true, Status: result.Status}
	switch result.Status {
	case session.StatusActive:
		now := result.Now
		resp.Now = &now
	default:
		resp.LogoutTime = result.LogoutAt
	}
	if l := result.Inactivity; l != nil {
		resp.Inactivity = &inactivityResponse{
			StartTime: l.Start,
			EndTime:   l.End,
			Minutes:   activity.Round2(l.Duration().Minutes()),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout はセッションを終了する。終了済みの場合は記録済みのログアウト時刻を返す。
// POST /api/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Logout(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logoutResponse{
		OK:            true,
		LogoutTime:    result.LogoutAt,
		AlreadyClosed: result.AlreadyClosed,
	})
}

// sessionID はトークンのセッションIDを返す。
// ボディで別のセッションが指定された場合は、存在を明かさないよう未検出として扱う。
func (h *SessionHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := principal(w, r)
	if !ok {
		return "", false
	}

	var req sessionRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		handleServiceError(w, r, err)
		return "", false
	}
	if req.SessionID != "" && req.SessionID != p.SessionID {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewSessionNotFoundError(req.SessionID))
		return "", false
	}
	return p.SessionID, true
}
