package render

import "time"

// CalendarKind says which fields of a Calendar are meaningful.
type CalendarKind int

const (
	// Date keeps year, month and day at local midnight.
	Date CalendarKind = iota
	// TimeOfDay keeps hour, minute and second on 1970-01-01.
	TimeOfDay
	// DateTime keeps the full instant and its zone.
	DateTime
)

// Calendar is a temporal template value. Templates print it through String,
// and the time.Time methods are reachable as {{.field.Time.Unix}}.
type Calendar struct {
	Time time.Time
	Kind CalendarKind
}

// Layouts used by Calendar.String.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02T15:04:05Z07:00"
)

// NewDate returns the local-midnight calendar value for a civil date.
func NewDate(year int, month time.Month, day int) Calendar {
	return Calendar{Time: time.Date(year, month, day, 0, 0, 0, 0, time.Local), Kind: Date}
}

// NewTimeOfDay returns the calendar value for a time of day anchored to 1970-01-01.
func NewTimeOfDay(hour, min, sec, nsec int) Calendar {
	return Calendar{Time: time.Date(1970, time.January, 1, hour, min, sec, nsec, time.Local), Kind: TimeOfDay}
}

// NewDateTime returns the calendar value for an instant, keeping its location.
func NewDateTime(t time.Time) Calendar {
	return Calendar{Time: t, Kind: DateTime}
}

func (c Calendar) String() string {
	switch c.Kind {
	case Date:
		return c.Time.Format(DateLayout)
	case TimeOfDay:
		return c.Time.Format(TimeLayout)
	default:
		return c.Time.Format(DateTimeLayout)
	}
}
