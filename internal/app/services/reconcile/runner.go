package reconcile

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/forgelight-labs/campaign_layer/internal/app/storage"
	"github.com/forgelight-labs/campaign_layer/internal/app/system"
	"github.com/forgelight-labs/campaign_layer/pkg/logger"
)

// DefaultSchedule runs a pass every five minutes.
const DefaultSchedule = "@every 5m"

// Runner periodically reconciles every campaign the registry knows about.
type Runner struct {
	service  *Service
	store    storage.CampaignStore
	schedule string
	log      *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

var _ system.Service = (*Runner)(nil)

// NewRunner creates a reconciliation runner with a cron schedule
// ("@every 5m", "0 * * * *", ...).
func NewRunner(service *Service, store storage.CampaignStore, schedule string, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewDefault("reconcile-runner")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Runner{
		service:  service,
		store:    store,
		schedule: schedule,
		log:      log,
	}
}

func (r *Runner) Name() string { return "reconcile" }

// Start schedules the periodic pass.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() { r.pass(context.Background()) }); err != nil {
		return err
	}
	c.Start()

	r.cron = c
	r.running = true
	r.log.WithField("schedule", r.schedule).Info("reconciliation runner started")
	return nil
}

// Stop halts scheduling and waits for an in-flight pass to finish.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.running = false
	r.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) pass(ctx context.Context) {
	snapshots, err := r.store.ListSnapshots(ctx)
	if err != nil {
		r.log.WithError(err).Warn("list campaigns failed")
		return
	}

	for _, snap := range snapshots {
		report, err := r.service.Reconcile(ctx, snap.Address)
		if err != nil {
			r.log.WithError(err).WithField("campaign", snap.Address).Warn("reconcile failed")
			continue
		}
		if report.Drift != 0 {
			r.log.WithField("campaign", snap.Address).
				WithField("drift", report.Drift).
				WithField("repaired", report.Repaired).
				Info("reconciliation pass found drift")
		}
	}
}
