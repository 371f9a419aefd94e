package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualAfterFunc(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := 0
	m.AfterFunc(time.Second, func() { fired++ })

	m.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, fired)
	m.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)
	m.Advance(time.Hour)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, m.Pending())
}

func TestManualStop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	fired := false
	h := m.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, h.Stop())
	assert.False(t, h.Stop())
	m.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestManualEveryRunsInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var calls []string
	m.Every(time.Second, func() { calls = append(calls, "tick") })
	m.AfterFunc(1500*time.Millisecond, func() { calls = append(calls, "once") })

	m.Advance(3 * time.Second)
	assert.Equal(t, []string{"tick", "once", "tick", "tick"}, calls)
	assert.Equal(t, time.Unix(3, 0), m.Now())
}

func TestManualCallbackCanStopItself(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	count := 0
	var h Handle
	h = m.Every(time.Second, func() {
		count++
		if count == 2 {
			h.Stop()
		}
	})

	m.Advance(10 * time.Second)
	assert.Equal(t, 2, count)
	assert.Equal(t, 0, m.Pending())
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Execute(func() { got = append(got, i) })
	}
	require.True(t, loop.Call(func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	loop.Close()
	assert.False(t, loop.Execute(func() {}))
}

func TestLoopExecuteFromInsideLoop(t *testing.T) {
	loop := NewLoop()
	go func() { _ = loop.Run(context.Background()) }()
	defer loop.Close()

	done := make(chan struct{})
	loop.Execute(func() {
		loop.Execute(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tarefa aninhada não executou")
	}
}

func TestLoopSchedulerDeliversThroughExecutor(t *testing.T) {
	loop := NewLoop()
	go func() { _ = loop.Run(context.Background()) }()
	defer loop.Close()

	s := NewLoopScheduler(loop.Post)
	var ticks atomic.Int32
	fired := make(chan struct{})

	h := s.Every(5*time.Millisecond, func() { ticks.Add(1) })
	s.AfterFunc(30*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc não disparou")
	}
	assert.True(t, h.Stop())
	assert.False(t, h.Stop())
	assert.Greater(t, ticks.Load(), int32(0))
}

func TestLoopSchedulerStopPreventsCallback(t *testing.T) {
	loop := NewLoop()
	go func() { _ = loop.Run(context.Background()) }()
	defer loop.Close()

	s := NewLoopScheduler(loop.Post)
	var fired atomic.Bool
	h := s.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
	require.True(t, h.Stop())

	time.Sleep(60 * time.Millisecond)
	loop.Call(func() {})
	assert.False(t, fired.Load())
}
