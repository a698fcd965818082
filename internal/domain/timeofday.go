package domain

import "time"

// TimeOfDay names one of four fixed wall-clock windows. The values are the
// Dutch tokens users write in questions.
type TimeOfDay string

const (
	TimeNight     TimeOfDay = "nacht"   // 00:00:00 - 05:59:59
	TimeMorning   TimeOfDay = "ochtend" // 06:00:00 - 11:59:59
	TimeAfternoon TimeOfDay = "middag"  // 12:00:00 - 17:59:59
	TimeEvening   TimeOfDay = "avond"   // 18:00:00 - 23:59:59
)

// timeOfDayWindows maps each window to its inclusive bounds in seconds
// since local midnight. The four windows are disjoint and cover the day.
var timeOfDayWindows = map[TimeOfDay][2]int{
	TimeNight:     {0, 6*3600 - 1},
	TimeMorning:   {6 * 3600, 12*3600 - 1},
	TimeAfternoon: {12 * 3600, 18*3600 - 1},
	TimeEvening:   {18 * 3600, 24*3600 - 1},
}

// Known reports whether w names one of the four windows.
func (w TimeOfDay) Known() bool {
	_, ok := timeOfDayWindows[w]
	return ok
}

// Contains reports whether the local wall-clock time t falls inside the
// window, bounds inclusive.
func (w TimeOfDay) Contains(t time.Time) bool {
	bounds, ok := timeOfDayWindows[w]
	if !ok {
		return false
	}
	sec := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return sec >= bounds[0] && sec <= bounds[1]
}

// TimeOfDayFor returns the window containing the local wall-clock time t.
// Every time belongs to exactly one window.
func TimeOfDayFor(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h < 6:
		return TimeNight
	case h < 12:
		return TimeMorning
	case h < 18:
		return TimeAfternoon
	default:
		return TimeEvening
	}
}
