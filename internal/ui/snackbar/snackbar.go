// Package snackbar mantém a fila de notificações transitórias exibidas ao usuário.
package snackbar

import (
	"time"

	"github.com/ceidigital/cei_console_go/internal/ui/scheduler"
)

// Kind é o tipo visual da notificação.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Snack é uma notificação visível.
type Snack struct {
	ID      int
	Message string
	Kind    Kind
	TTL     time.Duration
}

// TTLs define a duração padrão por tipo.
type TTLs struct {
	Success time.Duration
	Error   time.Duration
	Info    time.Duration
}

// DefaultTTLs são as durações usadas quando nada é configurado.
var DefaultTTLs = TTLs{
	Success: 3000 * time.Millisecond,
	Error:   4000 * time.Millisecond,
	Info:    3500 * time.Millisecond,
}

func (t TTLs) forKind(k Kind) time.Duration {
	switch k {
	case KindSuccess:
		return t.Success
	case KindError:
		return t.Error
	default:
		return t.Info
	}
}

type entry struct {
	snack  Snack
	handle scheduler.Handle
}

// Queue é a fila ordenada (mais antiga primeiro). Não é segura para uso
// concorrente: toda chamada acontece na thread da interface, inclusive os
// disparos de expiração entregues pelo Scheduler.
type Queue struct {
	sched       scheduler.Scheduler
	ttls        TTLs
	seq         int
	items       []entry
	subscribers map[int]func([]Snack)
	subSeq      int
}

// NewQueue cria uma fila vazia. O primeiro id emitido é 1.
func NewQueue(sched scheduler.Scheduler, ttls TTLs) *Queue {
	return &Queue{
		sched:       sched,
		ttls:        ttls,
		subscribers: make(map[int]func([]Snack)),
	}
}

// Push adiciona uma notificação com a duração padrão do tipo.
func (q *Queue) Push(message string, kind Kind) int {
	return q.PushTTL(message, kind, q.ttls.forKind(kind))
}

// PushTTL adiciona uma notificação; ttl 0 (ou negativo) a mantém até Dismiss.
func (q *Queue) PushTTL(message string, kind Kind, ttl time.Duration) int {
	if ttl < 0 {
		ttl = 0
	}
	q.seq++
	id := q.seq
	e := entry{snack: Snack{ID: id, Message: message, Kind: kind, TTL: ttl}}
	if ttl > 0 {
		e.handle = q.sched.AfterFunc(ttl, func() { q.Dismiss(id) })
	}
	q.items = append(q.items, e)
	q.publish()
	return id
}

func (q *Queue) Success(message string) int { return q.Push(message, KindSuccess) }
func (q *Queue) Error(message string) int   { return q.Push(message, KindError) }
func (q *Queue) Info(message string) int    { return q.Push(message, KindInfo) }

// Dismiss remove a notificação. Ids inexistentes são ignorados.
func (q *Queue) Dismiss(id int) {
	for i, e := range q.items {
		if e.snack.ID != id {
			continue
		}
		if e.handle != nil {
			e.handle.Stop()
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		q.publish()
		return
	}
}

// Clear remove todas as notificações.
func (q *Queue) Clear() {
	if len(q.items) == 0 {
		return
	}
	for _, e := range q.items {
		if e.handle != nil {
			e.handle.Stop()
		}
	}
	q.items = nil
	q.publish()
}

// Snapshot devolve uma cópia da lista visível.
func (q *Queue) Snapshot() []Snack {
	out := make([]Snack, len(q.items))
	for i, e := range q.items {
		out[i] = e.snack
	}
	return out
}

// Len devolve a quantidade de notificações visíveis.
func (q *Queue) Len() int { return len(q.items) }

// Subscribe registra fn para receber a lista a cada mudança. fn é chamado
// imediatamente com o estado atual. Devolve a função de cancelamento.
func (q *Queue) Subscribe(fn func([]Snack)) func() {
	q.subSeq++
	id := q.subSeq
	q.subscribers[id] = fn
	fn(q.Snapshot())
	return func() { delete(q.subscribers, id) }
}

func (q *Queue) publish() {
	if len(q.subscribers) == 0 {
		return
	}
	snap := q.Snapshot()
	for _, fn := range q.subscribers {
		fn(snap)
	}
}
