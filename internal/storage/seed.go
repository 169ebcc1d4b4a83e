package storage

import (
	"adminpanel/internal/config"
	"adminpanel/internal/model"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// EnsureSuperuser создает учетную запись администратора, если ее еще нет.
// Без ADMIN_EMAIL ничего не делает.
func EnsureSuperuser(ctx context.Context, users model.UserRepository, cfg *config.Config, logger *zap.Logger) (*model.User, error) {
	if cfg.AdminEmail == "" {
		logger.Debug("ADMIN_EMAIL is empty, skipping superuser seed")
		return nil, nil
	}

	existing, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to look up superuser: %w", err)
	}
	if existing != nil {
		logger.Debug("Superuser already exists", zap.Int64("user_id", existing.ID))
		return existing, nil
	}

	now := time.Now().UTC()
	user := &model.User{
		Name:            cfg.AdminName,
		Email:           cfg.AdminEmail,
		Status:          model.UserStatusActive,
		EmailVerifiedAt: &now,
	}
	if err := user.SetPassword(cfg.AdminPassword); err != nil {
		return nil, err
	}

	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to seed superuser: %w", err)
	}

	if user.ID != cfg.SuperuserID {
		logger.Warn("Seeded superuser id differs from SUPERUSER_ID",
			zap.Int64("user_id", user.ID),
			zap.Int64("superuser_id", cfg.SuperuserID))
	}

	logger.Info("Superuser created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}
