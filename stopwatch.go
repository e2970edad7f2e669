package atlast

import (
	"fmt"
	"time"
)

// stopwatch prints the time since it was last printed, or zero the first
// time.
type stopwatch struct {
	last time.Time
}

func (s *stopwatch) String() string {
	now := time.Now()
	var since time.Duration
	if !s.last.IsZero() {
		since = now.Sub(s.last)
	}
	s.last = now
	return fmt.Sprintf("[%.03fs]", since.Seconds())
}
