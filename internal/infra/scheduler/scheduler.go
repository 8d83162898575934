package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain/ports/usecase"
	"subsavvy/internal/infra/logging"
)

const runTimeout = 2 * time.Minute

// Scheduler periodically runs a ReminderSender.
type Scheduler struct {
	interval   time.Duration
	withinDays int
	sender     usecase.ReminderSender
	log        *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler runs sender.CheckAndNotify every interval for renewals within
// withinDays. A non-positive interval defaults to one hour.
func NewScheduler(interval time.Duration, withinDays int, sender usecase.ReminderSender, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if withinDays <= 0 {
		withinDays = 3
	}
	return &Scheduler{
		interval:   interval,
		withinDays: withinDays,
		sender:     sender,
		log:        logging.Component(logger, "reminder_scheduler"),
		done:       make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine; calling it twice has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(parentCtx)
	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Int("within_days", s.withinDays).Msg("scheduler started")
	s.tick()
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("scheduler stopping")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	runCtx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()
	sent, err := s.sender.CheckAndNotify(runCtx, s.withinDays)
	if err != nil {
		s.log.Error().Err(err).Msg("reminder run failed")
		return
	}
	if sent > 0 {
		s.log.Info().Int("sent", sent).Msg("reminders sent")
	}
}

// Stop cancels the loop and waits for it to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
}
