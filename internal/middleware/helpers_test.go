package middleware

import (
	"net/http"
	"net/http/httptest"

	"github.com/hitoshi/activitytracker/internal/auth"
)

// mockTokenParser はTokenParserのテスト用モック。
type mockTokenParser struct {
	parseFn func(token string) (*auth.TokenClaims, error)
}

func (m *mockTokenParser) ParseToken(token string) (*auth.TokenClaims, error) {
	if m.parseFn != nil {
		return m.parseFn(token)
	}
	return nil, auth.ErrInvalidToken
}

// staticTokens はトークン文字列からクレームを引く固定のTokenParserを返す。
func staticTokens(tokens map[string]*auth.TokenClaims) *mockTokenParser {
	return &mockTokenParser{
		parseFn: func(token string) (*auth.TokenClaims, error) {
			if c, ok := tokens[token]; ok {
				return c, nil
			}
			return nil, auth.ErrInvalidToken
		},
	}
}

// newAuthedRequest は認証ミドルウェアを通過した状態のリクエストを生成する。
func newAuthedRequest(method, target, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(ContextWithPrincipal(req.Context(), Principal{UserID: userID, SessionID: "sess-" + userID}))
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})
