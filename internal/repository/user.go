package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wellness-backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// UserRepository resolves the role attached to a user id.
type UserRepository interface {
	GetRole(ctx context.Context, userID string) (string, error)
	SetRole(ctx context.Context, userID, role string) error
}

type userRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewUserRepository(db *sqlx.DB, logger *zap.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

// GetRole returns models.RoleUser for unknown users.
func (r *userRepository) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.db.GetContext(ctx, &role, r.db.Rebind(`SELECT role FROM users WHERE user_id = ?`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RoleUser, nil
		}
		return "", fmt.Errorf("failed to get user role: %w", err)
	}
	return role, nil
}

func (r *userRepository) SetRole(ctx context.Context, userID, role string) error {
	query := r.db.Rebind(`
		INSERT INTO users (user_id, role) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET role = excluded.role
	`)
	if _, err := r.db.ExecContext(ctx, query, userID, role); err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	return nil
}
