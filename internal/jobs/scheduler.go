package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type sessionFinisher interface {
	FinishDueSessions(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler drives the time-based session transitions that no request
// handler performs: upcoming sessions whose end time has passed are
// swept to finished.
type Scheduler struct {
	cron    *cron.Cron
	catalog sessionFinisher
	spec    string
	log     zerolog.Logger
}

func NewScheduler(catalog sessionFinisher, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		catalog: catalog,
		spec:    spec,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.catalog.FinishDueSessions(ctx, time.Now()); err != nil {
		s.log.Error().Err(err).Msg("finish sweep failed")
	}
}
