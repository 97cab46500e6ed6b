package repository

import (
	"context"
	"fmt"
	"time"

	"wellness-backend/internal/crypto"
	"wellness-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ExchangeRepository stores the per-user chat transcript.
type ExchangeRepository interface {
	SaveExchange(ctx context.Context, ex *models.ChatExchange) error
	// RecentExchanges returns up to limit of the user's latest exchanges, oldest first.
	RecentExchanges(ctx context.Context, userID string, limit int) ([]*models.ChatExchange, error)
}

type exchangeRepository struct {
	db     *sqlx.DB
	cipher *crypto.Cipher
	logger *zap.Logger
}

// NewExchangeRepository creates an exchange repository. Message text is
// sealed with cipher when it is non-nil.
func NewExchangeRepository(db *sqlx.DB, cipher *crypto.Cipher, logger *zap.Logger) ExchangeRepository {
	return &exchangeRepository{db: db, cipher: cipher, logger: logger}
}

func (r *exchangeRepository) SaveExchange(ctx context.Context, ex *models.ChatExchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	userMessage, err := r.cipher.Seal(ex.UserMessage)
	if err != nil {
		return fmt.Errorf("failed to encrypt user message: %w", err)
	}
	botReply, err := r.cipher.Seal(ex.BotReply)
	if err != nil {
		return fmt.Errorf("failed to encrypt bot reply: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO chat_exchanges (id, user_id, user_message, bot_reply, language, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = r.db.ExecContext(ctx, query,
		ex.ID, ex.UserID, userMessage, botReply, ex.Language, ex.Source, ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert chat exchange: %w", err)
	}
	return nil
}

func (r *exchangeRepository) RecentExchanges(ctx context.Context, userID string, limit int) ([]*models.ChatExchange, error) {
	if limit <= 0 {
		return []*models.ChatExchange{}, nil
	}

	var rows []*models.ChatExchange
	query := r.db.Rebind(`
		SELECT id, user_id, user_message, bot_reply, language, source, created_at
		FROM chat_exchanges
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to query chat exchanges: %w", err)
	}

	out := make([]*models.ChatExchange, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		ex := rows[i]
		if err := r.open(ex); err != nil {
			// Unreadable rows are skipped, not fatal for the whole transcript.
			r.logger.Warn("Skipping undecryptable chat exchange", zap.String("id", ex.ID), zap.Error(err))
			continue
		}
		out = append(out, ex)
	}
	return out, nil
}

func (r *exchangeRepository) open(ex *models.ChatExchange) error {
	var err error
	if ex.UserMessage, err = r.cipher.Open(ex.UserMessage); err != nil {
		return err
	}
	ex.BotReply, err = r.cipher.Open(ex.BotReply)
	return err
}
