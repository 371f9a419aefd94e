// Package scheduler fornece timers canceláveis cujos callbacks rodam na
// thread lógica da interface (o Loop), e uma implementação manual para testes.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handle cancela um agendamento. Stop devolve false se já estava parado.
type Handle interface {
	Stop() bool
}

// Scheduler agenda callbacks únicos ou periódicos.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Handle
	Every(d time.Duration, f func()) Handle
}

// Executor entrega um callback à thread da interface.
type Executor func(f func())

// loopScheduler usa o relógio real e entrega os disparos via Executor.
type loopScheduler struct {
	exec Executor
}

// NewLoopScheduler cria um Scheduler de relógio real. Os callbacks são
// postados no exec, nunca executados na goroutine do timer.
func NewLoopScheduler(exec Executor) Scheduler {
	return &loopScheduler{exec: exec}
}

type afterHandle struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (h *afterHandle) Stop() bool {
	if h.stopped.Swap(true) {
		return false
	}
	h.timer.Stop()
	return true
}

func (s *loopScheduler) AfterFunc(d time.Duration, f func()) Handle {
	h := &afterHandle{}
	h.timer = time.AfterFunc(d, func() {
		s.exec(func() {
			// Stop pode ter sido chamado depois do disparo e antes da entrega.
			if h.stopped.Swap(true) {
				return
			}
			f()
		})
	})
	return h
}

type everyHandle struct {
	stopped  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once
}

func (h *everyHandle) Stop() bool {
	if h.stopped.Swap(true) {
		return false
	}
	h.stopOnce.Do(func() { close(h.done) })
	return true
}

func (s *loopScheduler) Every(d time.Duration, f func()) Handle {
	h := &everyHandle{done: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				s.exec(func() {
					if h.stopped.Load() {
						return
					}
					f()
				})
			}
		}
	}()
	return h
}
