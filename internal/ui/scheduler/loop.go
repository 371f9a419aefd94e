package scheduler

import (
	"context"
	"sync"
)

// Loop é a thread lógica da interface: executa as tarefas postadas uma de cada vez,
// na ordem de chegada.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewLoop cria um Loop parado; chame Run em uma goroutine.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Execute enfileira f. Nunca bloqueia, mesmo quando chamado de dentro do Loop.
// Devolve false se o Loop já foi fechado.
func (l *Loop) Execute(f func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Post é Execute sem o retorno, no formato de Executor.
func (l *Loop) Post(f func()) {
	l.Execute(f)
}

// Call enfileira f e espera sua execução. Não chame de dentro do Loop.
func (l *Loop) Call(f func()) bool {
	finished := make(chan struct{})
	if !l.Execute(func() {
		defer close(finished)
		f()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// Run processa tarefas até o contexto ser cancelado ou Close ser chamado.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, f := range batch {
			f()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// Close encerra o Loop; tarefas pendentes são descartadas.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.queue = nil
	close(l.done)
}
