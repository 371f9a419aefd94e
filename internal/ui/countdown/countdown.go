// Package countdown implementa as contagens regressivas do fluxo de cadastro:
// a espera para reenviar o código e a validade do código enviado.
package countdown

import (
	"time"

	"github.com/ceidigital/cei_console_go/internal/ui/scheduler"
	"github.com/ceidigital/cei_console_go/internal/utils"
)

// Countdown é uma máquina de estados idle -> running -> idle.
// Mantém no máximo um agendamento ativo; todos os métodos devem ser chamados
// na thread da interface.
type Countdown struct {
	sched     scheduler.Scheduler
	remaining int
	handle    scheduler.Handle
	onChange  func(remaining int)
}

// New cria um Countdown parado. onChange (opcional) recebe o valor após cada mudança.
func New(sched scheduler.Scheduler, onChange func(remaining int)) *Countdown {
	return &Countdown{sched: sched, onChange: onChange}
}

// Start reinicia a contagem em seconds, cancelando o agendamento anterior.
// seconds <= 0 deixa o Countdown parado em zero.
func (c *Countdown) Start(seconds int) {
	c.cancel()
	if seconds < 0 {
		seconds = 0
	}
	c.remaining = seconds
	if seconds > 0 {
		c.handle = c.sched.Every(time.Second, c.Tick)
	}
	c.notify()
}

// Tick decrementa um segundo, sem passar de zero. Ao chegar a zero, para o agendamento.
func (c *Countdown) Tick() {
	if c.remaining > 0 {
		c.remaining--
		c.notify()
	}
	if c.remaining == 0 {
		c.cancel()
	}
}

// Stop interrompe a contagem e zera o valor.
func (c *Countdown) Stop() {
	c.cancel()
	if c.remaining != 0 {
		c.remaining = 0
		c.notify()
	}
}

func (c *Countdown) cancel() {
	if c.handle != nil {
		c.handle.Stop()
		c.handle = nil
	}
}

func (c *Countdown) notify() {
	if c.onChange != nil {
		c.onChange(c.remaining)
	}
}

// Remaining devolve os segundos restantes.
func (c *Countdown) Remaining() int { return c.remaining }

// Running informa se há contagem em andamento.
func (c *Countdown) Running() bool { return c.handle != nil }

// Idle é o oposto de Running.
func (c *Countdown) Idle() bool { return c.handle == nil }

// Format devolve o restante como MM:SS.
func (c *Countdown) Format() string { return utils.FormatSeconds(c.remaining) }

// RegistrationTimers agrupa as duas contagens independentes do cadastro.
type RegistrationTimers struct {
	Cooldown *Countdown
	Expiry   *Countdown

	cooldownSeconds int
	expirySeconds   int
}

// NewRegistrationTimers cria o par com as durações dadas (padrão do fluxo: 60 e 600).
func NewRegistrationTimers(sched scheduler.Scheduler, cooldownSeconds, expirySeconds int, onChange func()) *RegistrationTimers {
	var cb func(int)
	if onChange != nil {
		cb = func(int) { onChange() }
	}
	return &RegistrationTimers{
		Cooldown:        New(sched, cb),
		Expiry:          New(sched, cb),
		cooldownSeconds: cooldownSeconds,
		expirySeconds:   expirySeconds,
	}
}

// Restart é chamado a cada (re)envio do código: reinicia as duas contagens.
func (rt *RegistrationTimers) Restart() {
	rt.Cooldown.Start(rt.cooldownSeconds)
	rt.Expiry.Start(rt.expirySeconds)
}

// StopAll cancela as duas contagens.
func (rt *RegistrationTimers) StopAll() {
	rt.Cooldown.Stop()
	rt.Expiry.Stop()
}

// CanResend só é verdadeiro quando a espera de reenvio terminou.
func (rt *RegistrationTimers) CanResend() bool { return rt.Cooldown.Idle() }

// ExpiryDisplay é a validade restante do código no formato MM:SS.
func (rt *RegistrationTimers) ExpiryDisplay() string { return rt.Expiry.Format() }
