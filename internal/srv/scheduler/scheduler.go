package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/sirupsen/logrus"
	"sync"
	"sync/atomic"
	"time"
)

// Forwarder receives due commands, in practice the command bus
type Forwarder interface {
	Send(cmd command.Command) error
}

// Scheduler holds delayed commands until their deadline, then forwards them.
// Submissions never block, so screens can re-arm their redraw from the runtime goroutine.
type Scheduler struct {
	forwarder Forwarder
	now       func() time.Time

	lock     sync.Mutex
	intake   []*scheduledCommand
	sequence uint64
	wake     chan struct{}

	pending scheduledQueue
	count   atomic.Int64
}

var _ command.Submitter = (*Scheduler)(nil)

func NewScheduler(forwarder Forwarder) *Scheduler {
	return &Scheduler{
		forwarder: forwarder,
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}
}

func (s *Scheduler) Submit(cmd command.Command) {
	s.SubmitDelayed(command.Now(cmd))
}

func (s *Scheduler) SubmitAfter(cmd command.Command, delay time.Duration) {
	s.SubmitDelayed(command.After(cmd, delay))
}

func (s *Scheduler) SubmitDelayed(delayedCommand command.DelayedCommand) {
	deadline := s.now()
	if delayedCommand.HasDelay && delayedCommand.Delay > 0 {
		deadline = deadline.Add(delayedCommand.Delay)
	}

	s.lock.Lock()
	s.sequence++
	s.intake = append(s.intake, &scheduledCommand{
		command:  delayedCommand.Command,
		deadline: deadline,
		sequence: s.sequence,
	})
	s.lock.Unlock()

	s.signal()
}

// Pending returns the number of commands waiting for their deadline
func (s *Scheduler) Pending() int {
	return int(s.count.Load())
}

// Run forwards commands until ctx is done. A forward failure ends the loop with an error:
// there is no way to recover a command bus without consumer.
func (s *Scheduler) Run(ctx context.Context) error {
	logrus.Infof("Start command scheduler")

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)

	for {
		s.drainIntake()

		if err := s.forwardDue(); err != nil {
			return err
		}
		s.count.Store(int64(s.pending.Len()))

		var timerChannel <-chan time.Time
		if s.pending.Len() > 0 {
			timer.Reset(s.pending.peek().deadline.Sub(s.now()))
			timerChannel = timer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			logrus.Infof("Stop command scheduler")
			return ctx.Err()
		case <-s.wake:
		case <-timerChannel:
		}
		stopTimer(timer)
	}
}

func (s *Scheduler) drainIntake() {
	s.lock.Lock()
	intake := s.intake
	s.intake = nil
	s.lock.Unlock()

	for _, scheduled := range intake {
		heap.Push(&s.pending, scheduled)
	}
}

func (s *Scheduler) forwardDue() error {
	now := s.now()
	for s.pending.Len() > 0 && !s.pending.peek().deadline.After(now) {
		scheduled := heap.Pop(&s.pending).(*scheduledCommand)
		if err := s.forwarder.Send(scheduled.command); err != nil {
			return fmt.Errorf("forward %s command: %w", scheduled.command.Kind(), err)
		}
	}
	return nil
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
