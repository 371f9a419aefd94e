package scheduler

import (
	"sync"
	"time"
)

// Manual é um Scheduler de tempo simulado. Nada dispara até Advance, que
// executa os callbacks vencidos em ordem cronológica, na goroutine chamadora.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers map[int]*manualTimer
}

type manualTimer struct {
	m      *Manual
	id     int
	at     time.Time
	period time.Duration
	f      func()
}

// NewManual cria um Manual com o relógio em start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, timers: make(map[int]*manualTimer)}
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if _, ok := t.m.timers[t.id]; !ok {
		return false
	}
	delete(t.m.timers, t.id)
	return true
}

func (m *Manual) add(d, period time.Duration, f func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, id: m.seq, at: m.now.Add(d), period: period, f: f}
	m.timers[t.id] = t
	return t
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Handle {
	return m.add(d, 0, f)
}

func (m *Manual) Every(d time.Duration, f func()) Handle {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(d, d, f)
}

// Advance avança o relógio em d, disparando tudo que vencer no caminho.
// Callbacks podem agendar ou cancelar outros timers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.at
		if next.period > 0 {
			next.at = next.at.Add(next.period)
		} else {
			delete(m.timers, next.id)
		}
		f := next.f
		m.mu.Unlock()
		f()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// nextDue devolve o timer vencido mais antigo (empate: o criado primeiro).
func (m *Manual) nextDue(limit time.Time) *manualTimer {
	var best *manualTimer
	for _, t := range m.timers {
		if t.at.After(limit) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.id < best.id) {
			best = t
		}
	}
	return best
}

// Now devolve o instante simulado.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending conta os agendamentos ativos.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
