// Package auth はメールアドレスとパスワードによるログイン、ベアラートークンの発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/activitytracker/internal/metrics"
	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/repository"
)

// SessionOpener はログイン時に作業セッションを開始する。
type SessionOpener interface {
	Open(ctx context.Context, userID string) (*model.Session, error)
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	User      *model.User
	SessionID string
	Token     string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	sessions SessionOpener
	tokens   *TokenIssuer
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	sessions SessionOpener,
	tokens *TokenIssuer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		metrics:  collector,
	}
}

// Login はメールアドレスとパスワードを検証し、新しいセッションとトークンを発行する。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.metrics.RecordLogin(false)
		return nil, model.NewUserNotFoundError()
	}

	if !CheckPassword(password, user.PasswordHash) {
		s.metrics.RecordLogin(false)
		slog.Info("login rejected", slog.String("user_id", user.ID))
		return nil, model.NewInvalidCredentialError()
	}

	session, err := s.sessions.Open(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, session.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(true)
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID),
	)

	return &LoginResult{User: user, SessionID: session.ID, Token: token}, nil
}

// CurrentUser は指定IDのユーザーを返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// ParseToken はベアラートークンを検証してクレームを返す。
func (s *Service) ParseToken(token string) (*TokenClaims, error) {
	return s.tokens.Parse(token)
}
