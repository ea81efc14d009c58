// Package scheduler drives the bot on cron schedules: the periodic
// evaluation cycle, the weekly report and the daily counter rollover.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/vadiminshakov/dcabot/internal"
	"github.com/vadiminshakov/dcabot/internal/domain"
	"go.uber.org/zap"
)

var cronWeekdays = map[string]int{
	"sunday": 0, "monday": 1, "tuesday": 2, "wednesday": 3,
	"thursday": 4, "friday": 5, "saturday": 6,
}

// Scheduler owns the cron instance and reschedules jobs when the remote
// config changes the interval or the report slot.
type Scheduler struct {
	cron *cron.Cron
	bot  *internal.Bot
	log  *zap.Logger

	mu          sync.Mutex
	cycleEntry  cron.EntryID
	reportEntry cron.EntryID
	intervalMin int
	reportDay   string
	reportTime  string
}

// New creates a scheduler for the bot. Jobs run in UTC.
func New(bot *internal.Bot, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		bot:  bot,
		log:  logger,
	}
}

// Start registers the jobs from the initial config and starts cron.
// The first cycle runs immediately rather than waiting a full interval.
func (s *Scheduler) Start(ctx context.Context, initial domain.TradingConfig) error {
	if err := s.scheduleCycle(ctx, initial.DataFetchIntervalMin); err != nil {
		return err
	}
	if err := s.scheduleReport(ctx, initial.ReportDay, initial.ReportTime); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("0 0 * * *", s.bot.ResetDailyCounters); err != nil {
		return errors.Wrap(err, "schedule daily counter reset")
	}

	s.cron.Start()
	go s.runCycle(ctx)

	return nil
}

// Stop halts the cron scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runCycle(ctx context.Context) {
	cfg, err := s.bot.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, internal.ErrCycleInFlight) {
			return
		}
		s.log.Error("cycle failed", zap.Error(err))
		return
	}
	s.refresh(ctx, cfg)
}

// refresh reschedules jobs when the live config moved the interval or
// the report slot.
func (s *Scheduler) refresh(ctx context.Context, cfg domain.TradingConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.DataFetchIntervalMin != s.intervalMin {
		s.cron.Remove(s.cycleEntry)
		if err := s.scheduleCycleLocked(ctx, cfg.DataFetchIntervalMin); err != nil {
			s.log.Error("failed to reschedule cycle", zap.Error(err))
		} else {
			s.log.Info("cycle interval updated", zap.Int("minutes", cfg.DataFetchIntervalMin))
		}
	}

	if cfg.ReportDay != s.reportDay || cfg.ReportTime != s.reportTime {
		s.cron.Remove(s.reportEntry)
		if err := s.scheduleReportLocked(ctx, cfg.ReportDay, cfg.ReportTime); err != nil {
			s.log.Error("failed to reschedule weekly report", zap.Error(err))
		} else {
			s.log.Info("weekly report slot updated",
				zap.String("day", cfg.ReportDay), zap.String("time", cfg.ReportTime))
		}
	}
}

func (s *Scheduler) scheduleCycle(ctx context.Context, intervalMin int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleCycleLocked(ctx, intervalMin)
}

func (s *Scheduler) scheduleCycleLocked(ctx context.Context, intervalMin int) error {
	if intervalMin <= 0 {
		return fmt.Errorf("invalid cycle interval %d", intervalMin)
	}

	id, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", intervalMin), func() { s.runCycle(ctx) })
	if err != nil {
		return errors.Wrap(err, "schedule cycle")
	}

	s.cycleEntry = id
	s.intervalMin = intervalMin
	return nil
}

func (s *Scheduler) scheduleReport(ctx context.Context, day, at string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleReportLocked(ctx, day, at)
}

func (s *Scheduler) scheduleReportLocked(ctx context.Context, day, at string) error {
	spec, err := reportCronSpec(day, at)
	if err != nil {
		return err
	}

	id, err := s.cron.AddFunc(spec, func() { s.bot.WeeklyReport(ctx) })
	if err != nil {
		return errors.Wrap(err, "schedule weekly report")
	}

	s.reportEntry = id
	s.reportDay = day
	s.reportTime = at
	return nil
}

// reportCronSpec converts report_day/report_time into a cron expression.
func reportCronSpec(day, at string) (string, error) {
	weekday, ok := cronWeekdays[day]
	if !ok {
		return "", fmt.Errorf("invalid report day %q", day)
	}
	hour, minute, err := domain.ParseReportTime(at)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * %d", minute, hour, weekday), nil
}
