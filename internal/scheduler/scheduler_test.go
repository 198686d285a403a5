package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eladw/parkbot/internal/engine"
	"github.com/eladw/parkbot/internal/model"
	"github.com/eladw/parkbot/internal/registry"
)

type reminderRecorder struct {
	mu   sync.Mutex
	jobs []model.ReminderJob
}

func (r *reminderRecorder) remind(job model.ReminderJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *reminderRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func newFixture(t *testing.T) (*engine.Engine, *Scheduler, *reminderRecorder) {
	t.Helper()
	reg, err := registry.New([]model.Yard{{
		Name:          "A",
		Blocks:        map[model.SlotID][]model.SlotID{1: {}, 2: {}},
		ChargingSlots: map[model.SlotID]bool{1: true},
	}})
	require.NoError(t, err)
	eng := engine.New(reg, zap.NewNop())
	rec := &reminderRecorder{}
	s := New(eng, zap.NewNop(), rec.remind)
	t.Cleanup(s.Stop)
	return eng, s, rec
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestReminderFiresWhileStillParked(t *testing.T) {
	eng, s, rec := newFixture(t)
	user := model.User{ID: 1, DisplayName: "X"}

	_, err := eng.Claim("A", 1, user, "")
	require.NoError(t, err)

	s.Schedule(model.ReminderJob{
		UserID: 1, Slot: 1, YardName: "A",
		FireAt: time.Now().Add(20 * time.Millisecond),
	})
	waitFor(t, func() bool { return rec.count() == 1 })
	assert.Equal(t, model.SlotID(1), rec.jobs[0].Slot)
	assert.Zero(t, s.PendingCount())
}

func TestStaleReminderIsNoOp(t *testing.T) {
	eng, s, rec := newFixture(t)
	user := model.User{ID: 1, DisplayName: "X"}

	_, err := eng.Claim("A", 1, user, "")
	require.NoError(t, err)
	s.Schedule(model.ReminderJob{
		UserID: 1, Slot: 1, YardName: "A",
		FireAt: time.Now().Add(30 * time.Millisecond),
	})

	// The user leaves before the reminder is due.
	_, err = eng.Release("A", 1)
	require.NoError(t, err)

	waitFor(t, func() bool { return s.PendingCount() == 0 })
	time.Sleep(50 * time.Millisecond) // give a wrong fire the chance to happen
	assert.Zero(t, rec.count())
}

func TestReminderForRetakenSlotIsNoOp(t *testing.T) {
	eng, s, rec := newFixture(t)

	_, err := eng.Claim("A", 1, model.User{ID: 1, DisplayName: "X"}, "")
	require.NoError(t, err)
	s.Schedule(model.ReminderJob{
		UserID: 1, Slot: 1, YardName: "A",
		FireAt: time.Now().Add(30 * time.Millisecond),
	})

	// X leaves and Y takes the same slot: the binding no longer matches.
	_, err = eng.Release("A", 1)
	require.NoError(t, err)
	_, err = eng.Claim("A", 1, model.User{ID: 2, DisplayName: "Y"}, "")
	require.NoError(t, err)

	waitFor(t, func() bool { return s.PendingCount() == 0 })
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.count())
}

func TestCancelIfMatching(t *testing.T) {
	_, s, rec := newFixture(t)

	s.Schedule(model.ReminderJob{UserID: 1, Slot: 1, YardName: "A", FireAt: time.Now().Add(time.Hour)})
	s.Schedule(model.ReminderJob{UserID: 2, Slot: 2, YardName: "A", FireAt: time.Now().Add(time.Hour)})
	require.Equal(t, 2, s.PendingCount())

	n := s.CancelIfMatching(func(j model.ReminderJob) bool { return j.UserID == 1 })
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.PendingCount())

	n = s.CancelIfMatching(func(model.ReminderJob) bool { return true })
	assert.Equal(t, 1, n)
	assert.Zero(t, s.PendingCount())
	assert.Zero(t, rec.count())
}

func TestStartDailyResetValidation(t *testing.T) {
	_, s, _ := newFixture(t)

	assert.Error(t, s.StartDailyReset("Not/AZone", 0, 0, func() {}))
	assert.Error(t, s.StartDailyReset("Asia/Jerusalem", 24, 0, func() {}))
	assert.Error(t, s.StartDailyReset("Asia/Jerusalem", 0, 60, func() {}))
	assert.NoError(t, s.StartDailyReset("Asia/Jerusalem", 0, 0, func() {}))
}
