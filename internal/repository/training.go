package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wellness-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("not found")

// TrainingStats summarises the training candidate table.
type TrainingStats struct {
	Total       int            `json:"total"`
	Processed   int            `json:"processed"`
	Unprocessed int            `json:"unprocessed"`
	BySource    map[string]int `json:"by_source"`
}

// TrainingRepository handles the append-only training candidate table.
type TrainingRepository interface {
	SaveTrainingCandidate(ctx context.Context, c *models.TrainingCandidate) error
	// List returns candidates newest first. A nil processed returns both kinds.
	List(ctx context.Context, processed *bool, limit int) ([]*models.TrainingCandidate, error)
	MarkProcessed(ctx context.Context, id string) error
	Stats(ctx context.Context) (*TrainingStats, error)
}

type trainingRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewTrainingRepository creates a new training candidate repository.
func NewTrainingRepository(db *sqlx.DB, logger *zap.Logger) TrainingRepository {
	return &trainingRepository{db: db, logger: logger}
}

func (r *trainingRepository) SaveTrainingCandidate(ctx context.Context, c *models.TrainingCandidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO training_candidates (
			id, user_id, user_message, bot_reply, language, source,
			prefer_generative, processed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.UserMessage, c.BotReply, c.Language, c.Source,
		c.PreferGenerative, false, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert training candidate: %w", err)
	}
	return nil
}

func (r *trainingRepository) List(ctx context.Context, processed *bool, limit int) ([]*models.TrainingCandidate, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, user_id, user_message, bot_reply, language, source,
		       prefer_generative, processed, processed_at, created_at
		FROM training_candidates`
	args := []interface{}{}
	if processed != nil {
		query += ` WHERE processed = ?`
		args = append(args, *processed)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	entries := []*models.TrainingCandidate{}
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query training candidates: %w", err)
	}
	return entries, nil
}

func (r *trainingRepository) MarkProcessed(ctx context.Context, id string) error {
	query := r.db.Rebind(`
		UPDATE training_candidates
		SET processed = ?, processed_at = ?
		WHERE id = ?
	`)
	res, err := r.db.ExecContext(ctx, query, true, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark training candidate processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *trainingRepository) Stats(ctx context.Context) (*TrainingStats, error) {
	stats := &TrainingStats{BySource: map[string]int{}}

	if err := r.db.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM training_candidates`); err != nil {
		return nil, fmt.Errorf("failed to count training candidates: %w", err)
	}
	query := r.db.Rebind(`SELECT COUNT(*) FROM training_candidates WHERE processed = ?`)
	if err := r.db.GetContext(ctx, &stats.Processed, query, true); err != nil {
		return nil, fmt.Errorf("failed to count processed candidates: %w", err)
	}
	stats.Unprocessed = stats.Total - stats.Processed

	var bySource []struct {
		Source string `db:"source"`
		Count  int    `db:"count"`
	}
	err := r.db.SelectContext(ctx, &bySource, `
		SELECT source, COUNT(*) AS count
		FROM training_candidates
		GROUP BY source
	`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to group candidates by source: %w", err)
	}
	for _, row := range bySource {
		stats.BySource[row.Source] = row.Count
	}
	return stats, nil
}
