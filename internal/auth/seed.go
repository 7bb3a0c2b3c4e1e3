package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/activitytracker/internal/model"
	"github.com/hitoshi/activitytracker/internal/repository"
)

// SeedConfig はデモ用エージェントアカウントの作成設定。
type SeedConfig struct {
	Count    int
	Password string
	// Cost はbcryptのコスト。0の場合はbcrypt.DefaultCostを使用する。
	Cost int
}

// SeedAgents は agent1@example.com 〜 agentN@example.com のアカウントを作成する。
// 既に存在するメールアドレスはスキップするため、繰り返し実行できる。作成した件数を返す。
func SeedAgents(ctx context.Context, users repository.UserRepository, cfg SeedConfig) (int, error) {
	if cfg.Count <= 0 {
		return 0, nil
	}
	if cfg.Cost == 0 {
		cfg.Cost = defaultCost
	}

	hash, err := HashPassword(cfg.Password, cfg.Cost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash seed password: %w", err)
	}

	created := 0
	now := time.Now().UTC()
	for i := 1; i <= cfg.Count; i++ {
		user := &model.User{
			Email:        fmt.Sprintf("agent%d@example.com", i),
			Name:         fmt.Sprintf("Agent %d", i),
			PasswordHash: hash,
			IsVerified:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		ok, err := users.CreateIfNotExists(ctx, user)
		if err != nil {
			return created, fmt.Errorf("failed to seed %s: %w", user.Email, err)
		}
		if ok {
			created++
			slog.Info("seeded agent", slog.String("user_id", user.ID), slog.String("email", user.Email))
		}
	}
	return created, nil
}
