package clock

import (
	"testing"
	"time"
)

func TestClockTicks(t *testing.T) {
	ticks := make(chan time.Time, 8)
	c := New(func(now time.Time) {
		select {
		case ticks <- now:
		default:
		}
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer c.Stop()

	select {
	case now := <-ticks:
		if now.IsZero() {
			t.Error("tick with zero time")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no tick within 3s")
	}
}

func TestClockStopEndsTicks(t *testing.T) {
	ticks := make(chan struct{}, 8)
	c := New(func(time.Time) { ticks <- struct{}{} })
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	c.Stop()
	for len(ticks) > 0 {
		<-ticks
	}

	time.Sleep(1500 * time.Millisecond)
	if n := len(ticks); n != 0 {
		t.Errorf("%d ticks after Stop", n)
	}
}
