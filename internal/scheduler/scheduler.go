// Package scheduler runs the two timed facilities: one-shot charging
// reminders and the daily reset.  Reminders are plain timers keyed by
// their (user, yard, slot) binding and re-validated against live
// occupancy at fire time, so a reminder that outlived its reservation
// is a silent no-op.  The daily reset is a cron job pinned to a
// wall-clock time in a fixed timezone; cron recomputes the next fire
// from the clock, so restarts never accumulate drift.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/engine"
	"github.com/eladw/parkbot/internal/model"
)

// jobKey identifies a pending reminder by its full binding.
type jobKey struct {
	userID int64
	yard   string
	slot   model.SlotID
}

type pending struct {
	job   model.ReminderJob
	timer *time.Timer
}

// Scheduler owns all pending reminder timers and the daily reset cron.
type Scheduler struct {
	mu      sync.Mutex
	eng     *engine.Engine
	log     *zap.Logger
	remind  func(model.ReminderJob)
	pending map[jobKey]pending
	cron    *cron.Cron
}

// New constructs a Scheduler.  remind is invoked for every reminder
// that is still valid at fire time; it runs on the timer goroutine and
// must not block for long.
func New(eng *engine.Engine, log *zap.Logger, remind func(model.ReminderJob)) *Scheduler {
	return &Scheduler{
		eng:     eng,
		log:     log,
		remind:  remind,
		pending: make(map[jobKey]pending),
	}
}

// Schedule registers a one-shot reminder.  A job with the same binding
// replaces any pending one, which cannot happen through the normal
// claim path (the engine rejects double claims) but keeps the map
// consistent if it ever does.
func (s *Scheduler) Schedule(job model.ReminderJob) {
	key := jobKey{userID: job.UserID, yard: job.YardName, slot: job.Slot}
	delay := time.Until(job.FireAt)
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.pending[key]; ok {
		old.timer.Stop()
	}
	s.pending[key] = pending{
		job:   job,
		timer: time.AfterFunc(delay, func() { s.fire(key) }),
	}
	s.log.Info("reminder scheduled",
		zap.Int64("user_id", job.UserID),
		zap.String("yard", job.YardName),
		zap.Int("slot", int(job.Slot)),
		zap.Time("fire_at", job.FireAt))
}

// fire runs when a reminder is due.  The job's contract: re-read the
// current occupancy and deliver only if the same user still holds the
// same slot of the same yard.
func (s *Scheduler) fire(key jobKey) {
	s.mu.Lock()
	p, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if !ok {
		return // cancelled between firing and locking
	}
	res, occupied := s.eng.Holder(key.yard, key.slot)
	if !occupied || res.UserID != key.userID {
		s.log.Debug("stale reminder dropped",
			zap.Int64("user_id", key.userID),
			zap.String("yard", key.yard),
			zap.Int("slot", int(key.slot)))
		return
	}
	s.remind(p.job)
}

// CancelIfMatching stops and removes every pending reminder the
// predicate matches, returning how many were cancelled.
func (s *Scheduler) CancelIfMatching(match func(model.ReminderJob) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, p := range s.pending {
		if match(p.job) {
			p.timer.Stop()
			delete(s.pending, key)
			n++
		}
	}
	return n
}

// PendingCount reports the number of live reminder timers.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// StartDailyReset schedules reset to run every day at hour:minute in
// the tz timezone and starts the cron loop.  The reset job clears all
// occupancy, so pending reminders for cleared slots simply fail their
// fire-time validation; they do not need explicit cancellation.
func (s *Scheduler) StartDailyReset(tz string, hour, minute int, reset func()) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("load reset timezone %q: %w", tz, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("reset time %02d:%02d out of range", hour, minute)
	}
	c := cron.New(cron.WithLocation(loc))
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := c.AddFunc(spec, func() {
		s.log.Info("daily reset firing", zap.String("tz", tz))
		reset()
	}); err != nil {
		return fmt.Errorf("register daily reset: %w", err)
	}
	c.Start()
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	return nil
}

// Stop halts the cron loop and every pending reminder timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
}
