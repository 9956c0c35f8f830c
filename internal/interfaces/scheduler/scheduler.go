package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"budgetbully/internal/domain/item"
)

// ScheduleTime represents a specific time of day when the scheduler should run.
type ScheduleTime struct {
	Hour   int
	Minute int
}

// String returns the time in HH:MM format.
func (st ScheduleTime) String() string {
	return fmt.Sprintf("%02d:%02d", st.Hour, st.Minute)
}

// ParseScheduleTime parses a time string in HH:MM format.
func ParseScheduleTime(s string) (ScheduleTime, error) {
	var hour, minute int
	_, err := fmt.Sscanf(s, "%d:%d", &hour, &minute)
	if err != nil {
		return ScheduleTime{}, fmt.Errorf("invalid time format (expected HH:MM): %w", err)
	}

	if hour < 0 || hour > 23 {
		return ScheduleTime{}, fmt.Errorf("invalid hour: %d (must be 0-23)", hour)
	}
	if minute < 0 || minute > 59 {
		return ScheduleTime{}, fmt.Errorf("invalid minute: %d (must be 0-59)", minute)
	}

	return ScheduleTime{Hour: hour, Minute: minute}, nil
}

// JobProvider lists the jobs for one scheduled run.
type JobProvider func(context.Context) ([]Job, error)

// Scheduler submits a batch of jobs to a worker pool at fixed times of day.
type Scheduler struct {
	workerPool    *WorkerPool
	scheduleTimes []ScheduleTime
	runOnStartup  bool
	jobProvider   JobProvider

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastRunDate string
	mu          sync.Mutex
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	ScheduleTimes []string
	RunOnStartup  bool
	JobProvider   JobProvider
}

// NewScheduler creates a scheduler that feeds pool. The caller starts the
// pool; Shutdown stops it.
func NewScheduler(pool *WorkerPool, config SchedulerConfig) (*Scheduler, error) {
	scheduleTimes := make([]ScheduleTime, 0, len(config.ScheduleTimes))
	for _, timeStr := range config.ScheduleTimes {
		st, err := ParseScheduleTime(timeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule time %q: %w", timeStr, err)
		}
		scheduleTimes = append(scheduleTimes, st)
	}

	if len(scheduleTimes) == 0 {
		return nil, errors.New("at least one schedule time is required")
	}
	if pool == nil {
		return nil, errors.New("worker pool is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	log.Info().Strs("times", config.ScheduleTimes).Msg("Scheduler initialized")

	return &Scheduler{
		workerPool:    pool,
		scheduleTimes: scheduleTimes,
		runOnStartup:  config.RunOnStartup,
		jobProvider:   config.JobProvider,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start launches the scheduling loop.
func (s *Scheduler) Start() {
	if s.runOnStartup {
		log.Info().Msg("Scheduler: running initial job batch on startup")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJobs()
		}()
	}

	s.wg.Add(1)
	go s.scheduleLoop()
}

func (s *Scheduler) scheduleLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case now := <-ticker.C:
			if s.shouldRun(now) {
				log.Info().Str("at", now.Format("15:04")).Msg("Scheduler: triggered")
				s.runJobs()
			}
		}
	}
}

// shouldRun checks if now matches a scheduled time that has not fired yet.
func (s *Scheduler) shouldRun(now time.Time) bool {
	currentKey := now.Format("2006-01-02-15:04")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRunDate == currentKey {
		return false
	}

	for _, st := range s.scheduleTimes {
		if now.Hour() == st.Hour && now.Minute() == st.Minute {
			s.lastRunDate = currentKey
			return true
		}
	}

	return false
}

func (s *Scheduler) runJobs() {
	if s.jobProvider == nil {
		log.Warn().Msg("Scheduler: no job provider configured")
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to fetch jobs")
		return
	}

	if len(jobs) == 0 {
		log.Info().Msg("Scheduler: no jobs to process")
		return
	}

	s.workerPool.SubmitBatch(jobs)
}

// Shutdown stops the scheduling loop, then the worker pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		log.Warn().Msg("Scheduler: timeout waiting for scheduler loop to stop")
	}

	s.workerPool.ShutdownWithTimeout(timeout)
}

// TriggerNow manually triggers a job run immediately.
func (s *Scheduler) TriggerNow() {
	go s.runJobs()
}

// GetNextScheduledTime returns the next scheduled run time after now.
func (s *Scheduler) GetNextScheduledTime(now time.Time) time.Time {
	var next time.Time
	for _, st := range s.scheduleTimes {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), st.Hour, st.Minute, 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// ItemLister lists the items eligible for a scheduled sync.
type ItemLister interface {
	ListSyncable(ctx context.Context) ([]*item.Item, error)
}

// SyncableItemsProvider builds one ItemSyncJob per syncable item.
func SyncableItemsProvider(items ItemLister, syncer ItemSyncer) JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		list, err := items.ListSyncable(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list syncable items: %w", err)
		}
		jobs := make([]Job, 0, len(list))
		for _, it := range list {
			jobs = append(jobs, NewItemSyncJob(it.ID, syncer))
		}
		return jobs, nil
	}
}
