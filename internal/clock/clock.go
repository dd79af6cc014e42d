// Package clock abstracts "now" so schedule math that depends on the current
// date can be pinned in tests. Only cmd/ wires the real clock.
package clock

import (
	"time"

	"github.com/joseph-ayodele/bnpl-tracker/internal/core/dates"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

func NewReal() Clock { return RealClock{} }

func NewFixed(t time.Time) Clock { return FixedClock{T: t} }

// Today is the calendar date of c.Now() in loc. A nil loc means the clock's
// own location.
func Today(c Clock, loc *time.Location) dates.Date {
	now := c.Now()
	if loc != nil {
		now = now.In(loc)
	}
	return dates.FromTime(now)
}
