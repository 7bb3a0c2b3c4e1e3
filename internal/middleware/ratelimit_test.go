package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/activitytracker/internal/auth"
)

func testRateLimiterConfig(generalBurst, loginBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		LoginRate:       1,
		LoginBurst:      loginBurst,
		CleanupInterval: 1 * time.Minute,
	}
}

// --- GeneralMiddleware (API全般) のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(5, 10))
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/reports", "user-1"))

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler)

	// バースト分（2回）は通る
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newAuthedRequest(http.MethodPost, "/api/ping", "user-rate-limit"))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	// 3回目はレート制限に引っかかる
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newAuthedRequest(http.MethodPost, "/api/ping", "user-rate-limit"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	retryAfter := resp.Header.Get("Retry-After")
	sec, err := strconv.Atoi(retryAfter)
	if err != nil || sec < 1 {
		t.Errorf("Retry-After = %q, want positive integer", retryAfter)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["ok"] != false {
		t.Errorf("ok = %v, want false", body["ok"])
	}
	if body["code"] != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %v, want RATE_LIMIT_EXCEEDED", body["code"])
	}
	if body["category"] != "system" {
		t.Errorf("category = %v, want system", body["category"])
	}
}

func TestRateLimitMiddleware_IsolatesUserRateLimits(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler)

	// user-a がバーストを使い切る
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/reports", "user-a"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/reports", "user-a"))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Fatalf("user-a 2nd: status = %d, want 429", w.Result().StatusCode)
	}

	// user-b は影響を受けない
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/reports", "user-b"))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("user-b: status = %d, want 200", w.Result().StatusCode)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

func TestRateLimitMiddleware_NoUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(5, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- LoginMiddleware のテスト ---

func TestLoginRateLimit_LimitsPerIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 2))
	defer rl.Stop()

	handler := rl.LoginMiddleware()(okHandler)

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Result().StatusCode
	}

	// 同一IPはポートが違っても同じ枠を使う
	if got := send("192.0.2.1:1000"); got != http.StatusOK {
		t.Errorf("1st: status = %d, want 200", got)
	}
	if got := send("192.0.2.1:2000"); got != http.StatusOK {
		t.Errorf("2nd: status = %d, want 200", got)
	}
	if got := send("192.0.2.1:3000"); got != http.StatusTooManyRequests {
		t.Errorf("3rd: status = %d, want 429", got)
	}

	// 別IPは独立
	if got := send("198.51.100.7:1000"); got != http.StatusOK {
		t.Errorf("other ip: status = %d, want 200", got)
	}

	if got := rl.LoginLimiterCount(); got != 2 {
		t.Errorf("LoginLimiterCount = %d, want 2", got)
	}
}

func TestLoginRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1))
	defer rl.Stop()

	general := rl.GeneralMiddleware()(okHandler)
	login := rl.LoginMiddleware()(okHandler)

	w := httptest.NewRecorder()
	general.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/reports", "user-x"))
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("general: status = %d, want 200", w.Result().StatusCode)
	}

	// API全般の枠を使っていてもログインの枠は残っている
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	w = httptest.NewRecorder()
	login.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("login: status = %d, want 200", w.Result().StatusCode)
	}
}

// --- クリーンアップのテスト ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testRateLimiterConfig(5, 5)
	cfg.CleanupInterval = 50 * time.Millisecond // テスト用に短く

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	rl.GeneralMiddleware()(okHandler).ServeHTTP(httptest.NewRecorder(), newAuthedRequest(http.MethodGet, "/api/reports", "user-cleanup"))
	rl.LoginMiddleware()(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/login", nil))

	if rl.GeneralLimiterCount() == 0 || rl.LoginLimiterCount() == 0 {
		t.Fatal("expected limiter entries before cleanup")
	}

	// TTLはCleanupIntervalの2倍（100ms）なので、余裕を持って待つ
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.GeneralLimiterCount() == 0 && rl.LoginLimiterCount() == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("entries remain after cleanup: general=%d login=%d", rl.GeneralLimiterCount(), rl.LoginLimiterCount())
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1))
	rl.Stop()
	rl.Stop()
}

// --- ミドルウェアチェーンとの統合テスト ---

func TestRateLimitMiddleware_InChainWithAuthAndCORS(t *testing.T) {
	parser := staticTokens(map[string]*auth.TokenClaims{
		"rate-limit-token": {UserID: "user-rate-chain", SessionID: "sess-1"},
	})

	rl := NewRateLimiter(testRateLimiterConfig(2, 10))
	defer rl.Stop()

	// CORS -> Auth -> RateLimit -> Handler
	handler := NewCORSMiddleware("http://localhost:3000")(NewAuthMiddleware(parser)(rl.GeneralMiddleware()(okHandler)))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
		req.Header.Set("Authorization", "Bearer rate-limit-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Result().StatusCode
	}

	for i := 0; i < 2; i++ {
		if got := send(); got != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, got)
		}
	}
	if got := send(); got != http.StatusTooManyRequests {
		t.Errorf("request 3: status = %d, want 429", got)
	}
}

// --- 設定値のテスト ---

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != 2.0 { // 120/60 = 2
		t.Errorf("GeneralRate = %f, want 2.0", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.LoginRate == 0 {
		t.Error("LoginRate should not be 0")
	}
	if cfg.LoginBurst != 10 {
		t.Errorf("LoginBurst = %d, want 10", cfg.LoginBurst)
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(60, 6)

	if cfg.GeneralRate != 1.0 {
		t.Errorf("GeneralRate = %f, want 1.0", cfg.GeneralRate)
	}
	if cfg.LoginRate != 0.1 {
		t.Errorf("LoginRate = %f, want 0.1", cfg.LoginRate)
	}
	if cfg.GeneralBurst != 60 || cfg.LoginBurst != 6 {
		t.Errorf("bursts = %d/%d, want 60/6", cfg.GeneralBurst, cfg.LoginBurst)
	}
}
