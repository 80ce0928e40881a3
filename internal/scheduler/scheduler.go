package scheduler

import (
	"context"
	"fmt"
	"time"

	"calistenia/internal/config"
	"calistenia/internal/datastore"
	"calistenia/internal/interfaces"
	"calistenia/internal/services"
	"calistenia/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

const jobTimeout = 5 * time.Minute

// Scheduler drives the time-based jobs: inactivity nudges, the hourly
// class sweep, advisory reminders, the Sunday ranking close and the
// daily routine post. All schedules run in UTC.
type Scheduler struct {
	cron *cron.Cron
	cfg  *config.Config

	postgresDB *bun.DB
	gateway    interfaces.Gateway

	serviceClass   *services.ServiceClass
	serviceRanking *services.ServiceRanking
	serviceRoutine *services.ServiceRoutine
}

func New(container *do.Injector) (*Scheduler, error) {
	cfg, err := do.Invoke[*config.Config](container)
	if err != nil {
		return nil, err
	}
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}
	gateway, err := do.Invoke[interfaces.Gateway](container)
	if err != nil {
		return nil, err
	}
	serviceClass, err := do.Invoke[*services.ServiceClass](container)
	if err != nil {
		return nil, err
	}
	serviceRanking, err := do.Invoke[*services.ServiceRanking](container)
	if err != nil {
		return nil, err
	}
	serviceRoutine, err := do.Invoke[*services.ServiceRoutine](container)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:           cron.New(cron.WithLocation(time.UTC)),
		cfg:            cfg,
		postgresDB:     postgresDB,
		gateway:        gateway,
		serviceClass:   serviceClass,
		serviceRanking: serviceRanking,
		serviceRoutine: serviceRoutine,
	}, nil
}

func (s *Scheduler) add(spec, name string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		started := time.Now()
		if err := job(ctx); err != nil {
			logger.WithFields(map[string]interface{}{"job": name, "error": err}).Error("job failed")
			return
		}
		logger.WithFields(map[string]interface{}{"job": name, "took": time.Since(started).String()}).
			Debug("job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func(ctx context.Context) error
	}{
		{s.cfg.CronInactivity, "inactivity_nudge", s.runInactivity},
		{s.cfg.CronClasses, "class_sweep", s.serviceClass.Sweep},
		{s.cfg.CronAdvisory, "advisory_reminder", s.runAdvisory},
		{s.cfg.CronRanking, "weekly_ranking", s.serviceRanking.RunWeeklyCycle},
		{s.cfg.CronRoutine, "daily_routine", s.serviceRoutine.PostDaily},
	}
	for _, job := range jobs {
		if err := s.add(job.spec, job.name, job.run); err != nil {
			return err
		}
	}
	s.cron.Start()
	logger.WithFields(map[string]interface{}{"jobs": len(jobs)}).Info("scheduler started")
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("scheduler stopped")
}

// runInactivity nudges members silent for a week. The activity
// timestamp is touched only after the DM goes through, so members with
// closed DMs are retried next run instead of being silently skipped
// forever.
func (s *Scheduler) runInactivity(ctx context.Context) error {
	now := time.Now().UTC()
	inactive, err := datastore.GetInactiveUsers(ctx, s.postgresDB, now.Add(-services.InactivityCutoff))
	if err != nil {
		return err
	}
	for _, user := range inactive {
		if err := s.gateway.SendDM(ctx, user.UserID, services.InactivityMessage()); err != nil {
			logger.WithFields(map[string]interface{}{"user_id": user.UserID, "error": err}).
				Warn("inactivity nudge: dm skipped")
			continue
		}
		if err := datastore.TouchActivity(ctx, s.postgresDB, user.UserID, now); err != nil {
			logger.WithFields(map[string]interface{}{"user_id": user.UserID, "error": err}).
				Error("inactivity nudge: touch activity")
		}
	}
	return nil
}

func (s *Scheduler) runAdvisory(ctx context.Context) error {
	return s.gateway.SendChannel(ctx, services.ChannelAdvisory, services.AdvisoryMessage())
}
