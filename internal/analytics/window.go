package analytics

import (
	"fmt"
	"time"

	"github.com/IOT-Car-Assistant-ISI2526/IOT---Car-Assistant-Server-App/internal/domain"
)

// DefaultWindow is used when no start is supplied.
const DefaultWindow = 7 * 24 * time.Hour

// Window is an inclusive [Start, End] interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow applies the defaulting rules:
//   - end defaults to now; a supplied end at midnight means the whole day (23:59:59)
//   - start defaults to end - 7 days
//   - start after end is a validation error
func ResolveWindow(start, end *time.Time, now time.Time) (Window, error) {
	var w Window

	if end != nil {
		w.End = *end
		if isMidnight(w.End) {
			w.End = w.End.Add(24*time.Hour - time.Second)
		}
	} else {
		w.End = now
	}

	if start != nil {
		w.Start = *start
	} else {
		w.Start = w.End.Add(-DefaultWindow)
	}

	if w.Start.After(w.End) {
		return Window{}, fmt.Errorf("%w: start %s is after end %s", domain.ErrValidation,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return w, nil
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// DurationDays is the number of whole days in the window, at least 1.
func (w Window) DurationDays() int {
	days := int(w.End.Sub(w.Start) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// Bounds returns the window as inclusive epoch-second bounds, the unit devices report in.
func (w Window) Bounds() (from, to int64) {
	return w.Start.Unix(), w.End.Unix()
}
