package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// TriggerTime is a wall-clock time of day at which a watch cycle is armed.
type TriggerTime struct {
	Hour   int
	Minute int
	Second int
}

// ParseTriggerTime accepts HH:MM or HH:MM:SS (24h clock).
func ParseTriggerTime(s string) (TriggerTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TriggerTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TriggerTime{}, fmt.Errorf("trigger time %q must be HH:MM or HH:MM:SS", s)
}

func (t TriggerTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Next returns the first trigger instant strictly after now, in now's location.
// It is recomputed from the clock every time, so late runs never shift later ones.
func (t TriggerTime) Next(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, t.Second, 0, now.Location())
	if !candidate.After(now) {
		candidate = time.Date(now.Year(), now.Month(), now.Day()+1, t.Hour, t.Minute, t.Second, 0, now.Location())
	}
	return candidate
}
