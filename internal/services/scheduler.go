package services

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mkale-dev/rollcall/internal/models"
)

type schedulerUserRepository interface {
	ListPastExpectedLogin(now time.Time) ([]models.User, error)
}

// Scheduler runs the escalation sweep on a fixed period. Each tick evaluates
// every tracked user past their expected login time; one user's failure is
// logged and never blocks the rest of the sweep.
type Scheduler struct {
	users    schedulerUserRepository
	engine   *EscalationEngine
	settings settingsProvider
	clock    Clock
	logger   *log.Logger

	cron *cron.Cron
}

func NewScheduler(users schedulerUserRepository, engine *EscalationEngine, settings settingsProvider, clock Clock, location *time.Location, logger *log.Logger) *Scheduler {
	return &Scheduler{
		users:    users,
		engine:   engine,
		settings: settings,
		clock:    clock,
		logger:   logger,
		cron:     cron.New(cron.WithLocation(location)),
	}
}

// Start begins periodic sweeps at the configured check interval. Interval
// changes saved through the admin API take effect on the next restart; the
// other timing settings are read live on every tick.
func (scheduler *Scheduler) Start() {
	interval := scheduler.settings.Current().CheckInterval()
	scheduler.cron.Schedule(cron.Every(interval), cron.FuncJob(scheduler.Tick))
	scheduler.cron.Start()
	scheduler.logger.Printf("scheduler: escalation sweep every %s", interval)
}

// Stop halts scheduling and waits for an in-flight sweep to finish.
func (scheduler *Scheduler) Stop() {
	<-scheduler.cron.Stop().Done()
}

// Tick runs one sweep. Exported so an operator endpoint and tests can force
// a sweep without waiting for the period.
func (scheduler *Scheduler) Tick() {
	now := scheduler.clock.Now()
	users, err := scheduler.users.ListPastExpectedLogin(now)
	if err != nil {
		scheduler.logger.Printf("scheduler: listing users past expected login failed: %v", err)
		return
	}

	for _, user := range users {
		if err := scheduler.engine.Evaluate(user); err != nil {
			scheduler.logger.Printf("scheduler: evaluating user %s failed: %v", user.ChatID, err)
		}
	}
}
