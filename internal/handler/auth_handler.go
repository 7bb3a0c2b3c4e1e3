package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/activitytracker/internal/auth"
	"github.com/hitoshi/activitytracker/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler はログインと本人情報のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// loginRequest はPOST /api/loginのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のJSONレスポンス。
type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// loginResponse はPOST /api/loginのレスポンス。
type loginResponse struct {
	OK        bool         `json:"ok"`
	SessionID string       `json:"sessionId"`
	Token     string       `json:"token"`
	User      userResponse `json:"user"`
}

// meResponse はGET /api/meのレスポンス。
type meResponse struct {
	OK        bool         `json:"ok"`
	SessionID string       `json:"sessionId"`
	User      userResponse `json:"user"`
}

// Login はメールアドレスとパスワードで認証し、新しい作業セッションを開始する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		handleServiceError(w, r, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	result, err := h.service.Login(r.Context(), email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		OK:        true,
		SessionID: result.SessionID,
		Token:     result.Token,
		User:      toUserResponse(result.User),
	})
}

// Me は現在のログインユーザー情報を返す。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	user, err := h.service.CurrentUser(r.Context(), p.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		OK:        true,
		SessionID: p.SessionID,
		User:      toUserResponse(user),
	})
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}
