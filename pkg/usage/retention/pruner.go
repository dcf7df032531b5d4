package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/gateway/pkg/scheduler"
	"mercator-hq/gateway/pkg/usage"
)

// JobName is the scheduler job name used by Schedule.
const JobName = "usage_retention"

// Config configures the pruner.
type Config struct {
	// RetentionDays is the number of days to keep records.
	// 0 keeps records forever.
	RetentionDays int

	// PruneSchedule is a cron expression, e.g. "0 3 * * *".
	PruneSchedule string
}

// Pruner deletes usage records older than the retention period.
type Pruner struct {
	store  usage.Store
	config Config
	now    func() time.Time
	logger *slog.Logger
}

// NewPruner creates a pruner over store.
func NewPruner(store usage.Store, cfg Config, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:  store,
		config: cfg,
		now:    time.Now,
		logger: logger.With("component", "usage.retention"),
	}
}

// Cutoff returns the oldest timestamp kept at the current time.
func (p *Pruner) Cutoff() time.Time {
	return p.now().AddDate(0, 0, -p.config.RetentionDays)
}

// Prune deletes expired records and returns how many were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		p.logger.Debug("retention disabled, nothing to prune")
		return 0, nil
	}

	cutoff := p.Cutoff()
	deleted, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune usage records older than %d days: %w", p.config.RetentionDays, err)
	}

	if deleted > 0 {
		p.logger.Info("usage records pruned",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
			"cutoff_time", cutoff,
		)
	} else {
		p.logger.Debug("no usage records pruned", "cutoff_time", cutoff)
	}
	return deleted, nil
}

// Schedule registers Prune on s under JobName. It does nothing when
// retention is disabled or no schedule is configured.
func (p *Pruner) Schedule(ctx context.Context, s *scheduler.Scheduler) error {
	if p.config.RetentionDays <= 0 {
		return nil
	}
	return s.Add(ctx, JobName, p.config.PruneSchedule, func(ctx context.Context) error {
		_, err := p.Prune(ctx)
		return err
	})
}
