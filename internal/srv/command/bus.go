package command

import (
	"errors"
	"sync"
)

var ErrBusClosed = errors.New("command bus closed")

const busCapacity = 64

// Bus is the ordered command queue read by the display runtime.
// Any number of goroutines may Send, only one may read Commands().
type Bus struct {
	commands  chan Command
	done      chan struct{}
	closeOnce sync.Once
}

func NewBus() *Bus {
	return &Bus{
		commands: make(chan Command, busCapacity),
		done:     make(chan struct{}),
	}
}

// Send blocks until the command is queued, or fails once the consumer is gone.
func (b *Bus) Send(cmd Command) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}
	select {
	case b.commands <- cmd:
		return nil
	case <-b.done:
		return ErrBusClosed
	}
}

func (b *Bus) Commands() <-chan Command {
	return b.commands
}

// Close marks the consumer as gone: pending and future Send calls fail.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

func (b *Bus) Done() <-chan struct{} {
	return b.done
}
