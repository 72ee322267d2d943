package clock

import (
	"fmt"
	"time"
)

// Deciseconds is clock time in tenths of a second.
type Deciseconds int64

const (
	perSecond = 10
	perMinute = 60 * perSecond
	perHour   = 60 * perMinute
)

// FromHMS composes an absolute value from hour, minute and second fields.
func FromHMS(hours, minutes, seconds int) Deciseconds {
	return Deciseconds(hours)*perHour + Deciseconds(minutes)*perMinute + Deciseconds(seconds)*perSecond
}

// FromDuration truncates d to deciseconds.
func FromDuration(d time.Duration) Deciseconds {
	return Deciseconds(d / (100 * time.Millisecond))
}

// Duration converts back to a time.Duration.
func (d Deciseconds) Duration() time.Duration {
	return time.Duration(d) * 100 * time.Millisecond
}

// HMS splits a non-negative value into whole hours, minutes and seconds.
func (d Deciseconds) HMS() (hours, minutes, seconds int) {
	if d < 0 {
		d = 0
	}
	hours = int(d / perHour)
	minutes = int(d % perHour / perMinute)
	seconds = int(d % perMinute / perSecond)
	return hours, minutes, seconds
}

// WithHours replaces the hour field, keeping minutes and seconds of d.
func (d Deciseconds) WithHours(hours int) Deciseconds {
	_, m, s := d.HMS()
	return FromHMS(hours, m, s)
}

// WithMinutes replaces the minute field, keeping hours and seconds of d.
func (d Deciseconds) WithMinutes(minutes int) Deciseconds {
	h, _, s := d.HMS()
	return FromHMS(h, minutes, s)
}

// WithSeconds replaces the second field, keeping hours and minutes of d.
func (d Deciseconds) WithSeconds(seconds int) Deciseconds {
	h, m, _ := d.HMS()
	return FromHMS(h, m, seconds)
}

// String renders H:MM:SS.d when an hour or more remains, else MM:SS.d.
// Negative values render as zero.
func (d Deciseconds) String() string {
	if d < 0 {
		d = 0
	}
	h, m, s := d.HMS()
	tenth := int(d % perSecond)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%d", h, m, s, tenth)
	}
	return fmt.Sprintf("%02d:%02d.%d", m, s, tenth)
}
