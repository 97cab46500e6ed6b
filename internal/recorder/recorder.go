// Package recorder persists chat turns in the background so that storage
// latency and failures never reach the person chatting.
package recorder

import (
	"context"
	"errors"
	"sync"
	"time"

	"wellness-backend/internal/metrics"
	"wellness-backend/internal/models"
	"wellness-backend/internal/repository"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("recorder is closed")

const (
	kindExchange  = "exchange"
	kindCandidate = "training_candidate"
)

type task struct {
	kind string
	run  func(ctx context.Context) error
}

// Config for the background executor.
type Config struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

// Recorder is a fire-and-forget writer backed by a bounded queue.
type Recorder struct {
	exchanges repository.ExchangeRepository
	training  repository.TrainingRepository
	timeout   time.Duration
	logger    *zap.Logger

	queue  chan task
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// New starts cfg.Workers workers draining the queue.
func New(cfg Config, exchanges repository.ExchangeRepository, training repository.TrainingRepository, logger *zap.Logger) *Recorder {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		exchanges: exchanges,
		training:  training,
		timeout:   cfg.WriteTimeout,
		logger:    logger,
		queue:     make(chan task, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	logger.Info("Recorder started",
		zap.Int("workers", cfg.Workers),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("write_timeout", cfg.WriteTimeout))
	return r
}

// RecordExchange queues ex for the chat transcript. It never blocks.
func (r *Recorder) RecordExchange(ex *models.ChatExchange) {
	r.submit(task{kind: kindExchange, run: func(ctx context.Context) error {
		return r.exchanges.SaveExchange(ctx, ex)
	}})
}

// RecordTrainingCandidate queues c for the training corpus. It never blocks.
func (r *Recorder) RecordTrainingCandidate(c *models.TrainingCandidate) {
	r.submit(task{kind: kindCandidate, run: func(ctx context.Context) error {
		return r.training.SaveTrainingCandidate(ctx, c)
	}})
}

func (r *Recorder) submit(t task) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		metrics.RecorderTasks.WithLabelValues(t.kind, metrics.OutcomeDropped).Inc()
		r.logger.Warn("Recorder closed, dropping task", zap.String("kind", t.kind))
		return
	}

	select {
	case r.queue <- t:
	default:
		metrics.RecorderTasks.WithLabelValues(t.kind, metrics.OutcomeDropped).Inc()
		r.logger.Warn("Recorder queue full, dropping task", zap.String("kind", t.kind))
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for t := range r.queue {
		r.run(t)
	}
}

func (r *Recorder) run(t task) {
	// Detached from any request: the caller is long gone.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			metrics.RecorderTasks.WithLabelValues(t.kind, metrics.OutcomeError).Inc()
			r.logger.Error("Recorder task panicked", zap.String("kind", t.kind), zap.Any("panic", p))
		}
	}()

	if err := t.run(ctx); err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.RecorderTasks.WithLabelValues(t.kind, outcome).Inc()
		r.logger.Error("Failed to persist record", zap.String("kind", t.kind), zap.Error(err))
		return
	}
	metrics.RecorderTasks.WithLabelValues(t.kind, metrics.OutcomeOK).Inc()
}

// Close stops intake and waits for queued tasks until ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Recorder drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
