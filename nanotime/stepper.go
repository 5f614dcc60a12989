// Package nanotime paces a fixed-rate loop more precisely than a plain
// time.Sleep, which tends to overshoot by the scheduler's granularity.
package nanotime

import (
	"runtime"
	"time"
)

const (
	coarseSleep  = time.Millisecond
	resyncMargin = 100 * time.Millisecond
	zenoDivisor  = 16
)

// Clock abstracts the time source so tests can run without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(d time.Duration) {
	if d <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(d)
}

// Stepper blocks until successive step boundaries spaced Period apart.
type Stepper struct {
	period      time.Duration
	clock       Clock
	zeroSleep   time.Duration
	accumulator time.Duration
	sleepPoint  time.Time
}

func NewStepper(period time.Duration) *Stepper {
	return NewStepperWithClock(period, systemClock{})
}

func NewStepperWithClock(period time.Duration, clock Clock) *Stepper {
	start := clock.Now()
	clock.Sleep(0)
	return &Stepper{
		period:     period,
		clock:      clock,
		zeroSleep:  clock.Now().Sub(start),
		sleepPoint: clock.Now(),
	}
}

func (s *Stepper) Period() time.Duration {
	return s.period
}

// Step waits for the next boundary. It returns false without sleeping when
// the caller is behind schedule and should run the next step immediately.
// Falling more than a period plus 100ms behind drops the backlog.
func (s *Stepper) Step() bool {
	startPoint := s.clock.Now()
	if startPoint.Sub(s.sleepPoint) >= s.period+resyncMargin {
		s.sleepPoint = startPoint
		s.accumulator = 0
	}

	slept := false
	if s.accumulator < s.period {
		total := s.period - s.accumulator
		s.sleep(total, startPoint)

		var now time.Time
		var accumulated time.Duration
		for {
			now = s.clock.Now()
			accumulated = now.Sub(s.sleepPoint)
			if accumulated >= total {
				break
			}
		}
		s.accumulator += accumulated
		s.sleepPoint = now
		slept = true
	}

	s.accumulator -= s.period
	return slept
}

func (s *Stepper) since() time.Duration {
	return s.clock.Now().Sub(s.sleepPoint)
}

// sleep gets close to total in three phases: 1ms sleeps while they are safe,
// ever shorter sleeps, and finally yields.
func (s *Stepper) sleep(total time.Duration, startPoint time.Time) {
	remaining := total

	worst := coarseSleep
	start := s.clock.Now()
	for start.Sub(s.sleepPoint)+worst < total {
		s.clock.Sleep(coarseSleep)
		next := s.clock.Now()
		if d := next.Sub(start); d > worst {
			worst = d
		}
		start = next
	}
	initial := s.clock.Now().Sub(startPoint)
	if initial >= remaining {
		return
	}
	remaining -= initial

	remaining /= zenoDivisor
	for s.since()+s.zeroSleep < total && remaining > 0 {
		worst = s.zeroSleep
		for worst < s.period && s.since()+worst < total {
			before := s.clock.Now()
			s.clock.Sleep(remaining)
			if d := s.clock.Now().Sub(before); d > worst {
				worst = d
			}
		}
		remaining /= zenoDivisor
	}
	if s.since() >= total {
		return
	}

	worst = s.zeroSleep
	for {
		before := s.clock.Now()
		if before.Sub(s.sleepPoint)+worst >= total {
			return
		}
		s.clock.Sleep(0)
		s.zeroSleep = s.clock.Now().Sub(before)
		if s.zeroSleep > worst {
			worst = s.zeroSleep
		}
	}
}
