package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ceidigital/cei_console_go/internal/ui/scheduler"
)

type CountdownSuite struct {
	suite.Suite
	clock *scheduler.Manual
}

func (s *CountdownSuite) SetupTest() {
	s.clock = scheduler.NewManual(time.Unix(0, 0))
}

func TestCountdownSuite(t *testing.T) {
	suite.Run(t, new(CountdownSuite))
}

func (s *CountdownSuite) TestRunsToZeroAndStops() {
	c := New(s.clock, nil)
	c.Start(60)
	s.True(c.Running())
	s.Equal("01:00", c.Format())

	s.clock.Advance(59 * time.Second)
	s.Equal(1, c.Remaining())
	s.True(c.Running())

	s.clock.Advance(time.Second)
	s.Equal(0, c.Remaining())
	s.False(c.Running())
	s.Equal(0, s.clock.Pending())

	s.clock.Advance(10 * time.Second)
	s.Equal(0, c.Remaining())
}

func (s *CountdownSuite) TestManualTicksNeverGoNegative() {
	c := New(s.clock, nil)
	c.Start(60)
	for i := 0; i < 60; i++ {
		c.Tick()
	}
	s.Equal(0, c.Remaining())
	s.False(c.Running())

	c.Tick()
	c.Tick()
	s.Equal(0, c.Remaining())
}

func (s *CountdownSuite) TestRestartReplacesSchedule() {
	c := New(s.clock, nil)
	c.Start(10)
	s.clock.Advance(4 * time.Second)
	s.Equal(6, c.Remaining())

	c.Start(10)
	s.Equal(1, s.clock.Pending())
	s.clock.Advance(time.Second)
	s.Equal(9, c.Remaining(), "um único agendamento deve decrementar")
}

func (s *CountdownSuite) TestStop() {
	changes := 0
	c := New(s.clock, func(int) { changes++ })
	c.Start(5)
	c.Stop()
	s.True(c.Idle())
	s.Equal(0, c.Remaining())
	s.Equal(2, changes)
	s.Equal(0, s.clock.Pending())
}

func (s *CountdownSuite) TestStartZeroStaysIdle() {
	c := New(s.clock, nil)
	c.Start(0)
	s.True(c.Idle())
	s.Equal(0, s.clock.Pending())
}

func (s *CountdownSuite) TestRegistrationTimers() {
	changed := 0
	rt := NewRegistrationTimers(s.clock, 60, 600, func() { changed++ })
	s.True(rt.CanResend())

	rt.Restart()
	s.Equal(60, rt.Cooldown.Remaining())
	s.Equal(600, rt.Expiry.Remaining())
	s.False(rt.CanResend())
	s.Equal("10:00", rt.ExpiryDisplay())
	s.Equal(2, s.clock.Pending())

	s.clock.Advance(60 * time.Second)
	s.True(rt.CanResend())
	s.Equal("09:00", rt.ExpiryDisplay())
	s.Equal(1, s.clock.Pending())

	s.clock.Advance(30 * time.Second)
	rt.Restart()
	s.Equal(60, rt.Cooldown.Remaining())
	s.Equal(600, rt.Expiry.Remaining())
	s.Equal(2, s.clock.Pending())
	s.Greater(changed, 0)

	rt.StopAll()
	s.Equal(0, s.clock.Pending())
}
