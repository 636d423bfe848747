package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"BenchmarkBuilder/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Sender delivers build reports. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	Send(text string) error
}

// Scheduler runs dataset rebuilds on a cron schedule or on demand.
type Scheduler struct {
	Cron     *cron.Cron
	Builder  *Builder
	Notifier Sender // nil disables notifications
	Ctx      context.Context

	mu      sync.Mutex
	running bool
	last    *notifier.BuildSummary
	lastErr error
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, b *Builder, sender Sender) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		Builder:  b,
		Notifier: sender,
		Ctx:      ctx,
	}
}

// Register schedules a full rebuild on the given 6-field cron expression.
func (s *Scheduler) Register(rebuildCron string) error {
	if _, err := s.Cron.AddFunc(rebuildCron, s.rebuildTask); err != nil {
		return fmt.Errorf("register rebuild task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running rebuild to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one build synchronously and returns its result.
func (s *Scheduler) RunNow() (*notifier.BuildSummary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("a build is already running")
	}
	s.running = true
	s.mu.Unlock()

	sum, err := s.Builder.Run(s.Ctx)

	s.mu.Lock()
	s.running = false
	s.last, s.lastErr = sum, err
	s.mu.Unlock()

	if err != nil {
		s.trySend(notifier.FormatBuildFailure(err))
		return nil, err
	}
	s.trySend(notifier.FormatBuildReport(sum))
	return sum, nil
}

// Last returns the outcome of the most recent build, if any.
func (s *Scheduler) Last() (*notifier.BuildSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

func (s *Scheduler) rebuildTask() {
	log.Println("[INFO] running scheduled rebuild")
	if _, err := s.RunNow(); err != nil {
		log.Printf("[ERROR] scheduled rebuild: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/rebuild":
		go s.rebuildTask()
		return "rebuild started"
	case "/status":
		sum, err := s.Last()
		switch {
		case err != nil:
			return notifier.FormatBuildFailure(err)
		case sum == nil:
			return "no build has run yet"
		default:
			return notifier.FormatBuildReport(sum)
		}
	default:
		return "available commands:\n• /rebuild\n• /status"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
