package trends

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shabikihub/shabiki/pkg/logger"
)

// refreshSchedule runs at 06:00 and 17:00 EAT, expressed in UTC.
const refreshSchedule = "0 3,14 * * *"

// Refresher refreshes the trends cache on a fixed schedule. It implements the
// system service lifecycle.
type Refresher struct {
	service *Service
	cron    *cron.Cron
	log     *logger.Logger
}

// NewRefresher creates a scheduled refresher for the trends service.
func NewRefresher(service *Service, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.NewDefault("trends-refresher")
	}
	return &Refresher{
		service: service,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		log:     log,
	}
}

// Name identifies the refresher to the lifecycle manager.
func (r *Refresher) Name() string { return "trends-refresher" }

// Start registers the schedule and begins the cron loop.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(refreshSchedule, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := r.service.Refresh(refreshCtx); err != nil {
			r.log.WithError(err).Warn("scheduled trends refresh failed")
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for a running refresh to finish.
func (r *Refresher) Stop(ctx context.Context) error {
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	return nil
}
