package history

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/gobeaver/streamurl/metrics"
	"github.com/gobeaver/streamurl/streamurl"
)

// Recorder generates URL sets and records them. It implements Repository
// by delegation, counting writes in metrics.
type Recorder struct {
	gen     *streamurl.Generator
	repo    Repository
	metrics *metrics.Metrics
	log     logr.Logger
	now     func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

func WithLogger(log logr.Logger) RecorderOption {
	return func(r *Recorder) { r.log = log }
}

// WithClock sets the clock stamped on new records.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder creates a Recorder. gen may be nil for a wall-clock
// generator.
func NewRecorder(gen *streamurl.Generator, repo Repository, opts ...RecorderOption) *Recorder {
	if gen == nil {
		gen = streamurl.New()
	}
	r := &Recorder{gen: gen, repo: repo, log: logr.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate checks cfg without generating anything.
func (r *Recorder) Validate(cfg streamurl.Config) streamurl.ValidationResult {
	return r.gen.Validate(cfg)
}

// Generate composes the URL set for cfg, then saves cfg as the direction's
// last configuration and appends a history record. Persistence failures
// are logged and do not fail the generation.
func (r *Recorder) Generate(ctx context.Context, dir streamurl.Direction, cfg streamurl.Config) (*Record, error) {
	urls, err := r.gen.GenerateAll(cfg, dir)
	if err != nil {
		if errors.Is(err, streamurl.ErrInvalidConfig) {
			r.metrics.ValidationFailed(string(dir))
		}
		return nil, err
	}
	r.metrics.Generated(string(dir), cfg.AuthEnabled())

	rec := &Record{
		ID:        uuid.NewString(),
		Direction: dir,
		Config:    cfg,
		URLs:      urls,
		CreatedAt: r.now().UTC(),
	}
	if err := r.SaveConfig(ctx, dir, cfg); err != nil {
		r.log.Error(err, "saving last configuration failed", "direction", dir)
	}
	if err := r.Add(ctx, *rec); err != nil {
		r.log.Error(err, "recording history failed", "direction", dir, "id", rec.ID)
	}

	r.log.V(1).Info("generated urls", "direction", dir, "stream", cfg.StreamName, "auth", cfg.AuthEnabled())
	return rec, nil
}

// Verify checks an authenticated URL and counts the outcome.
func (r *Recorder) Verify(rawURL, secretKey string, alg streamurl.Algorithm) (*streamurl.Token, error) {
	tok, err := r.gen.Verify(rawURL, secretKey, alg)
	switch {
	case err == nil:
		r.metrics.Verified("ok")
	case errors.Is(err, streamurl.ErrExpired):
		r.metrics.Verified("expired")
	case errors.Is(err, streamurl.ErrInvalidSignature):
		r.metrics.Verified("invalid")
	default:
		r.metrics.Verified("malformed")
	}
	return tok, err
}

func (r *Recorder) SaveConfig(ctx context.Context, dir streamurl.Direction, cfg streamurl.Config) error {
	if err := r.repo.SaveConfig(ctx, dir, cfg); err != nil {
		return err
	}
	r.metrics.HistoryOp(string(dir), metrics.OpSaveConfig)
	return nil
}

func (r *Recorder) LastConfig(ctx context.Context, dir streamurl.Direction) (*streamurl.Config, error) {
	return r.repo.LastConfig(ctx, dir)
}

func (r *Recorder) Add(ctx context.Context, rec Record) error {
	if err := r.repo.Add(ctx, rec); err != nil {
		return err
	}
	r.metrics.HistoryOp(string(rec.Direction), metrics.OpAdd)
	return nil
}

func (r *Recorder) List(ctx context.Context, dir streamurl.Direction) ([]Record, error) {
	return r.repo.List(ctx, dir)
}

func (r *Recorder) Get(ctx context.Context, dir streamurl.Direction, id string) (*Record, error) {
	return r.repo.Get(ctx, dir, id)
}

func (r *Recorder) Delete(ctx context.Context, dir streamurl.Direction, id string) error {
	if err := r.repo.Delete(ctx, dir, id); err != nil {
		return err
	}
	r.metrics.HistoryOp(string(dir), metrics.OpDelete)
	return nil
}

func (r *Recorder) Clear(ctx context.Context, dir streamurl.Direction) error {
	if err := r.repo.Clear(ctx, dir); err != nil {
		return err
	}
	r.metrics.HistoryOp(string(dir), metrics.OpClear)
	r.log.Info("history cleared", "direction", dir)
	return nil
}

func (r *Recorder) Inputs(ctx context.Context, dir streamurl.Direction) (*Inputs, error) {
	return r.repo.Inputs(ctx, dir)
}
