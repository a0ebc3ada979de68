package rest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hugr-lab/restapi-airport/render"
)

// Layouts of temporal values in responses. They are parsed in UTC.
const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02T15:04:05"
)

const millisPerDay = 24 * 60 * 60 * 1000

// Coerce converts a raw extracted value, or a bound request value, to the
// Go representation of t:
//
//	BOOLEAN    bool
//	BYTE       int8
//	SHORT      int16
//	INT        int32
//	LONG       int64
//	FLOAT      float32
//	DOUBLE     float64
//	DATE       int32 days since 1970-01-01
//	TIME       int32 milliseconds since midnight
//	TIMESTAMP  int64 milliseconds since 1970-01-01T00:00:00Z
//	UUID       uuid.UUID
//	STRING     string
//
// nil coerces to nil, and so does "" for every type except STRING.
// render.Calendar values convert by kind without a text round trip. Other
// values that are not strings are converted through their text form first.
// Parse failures are returned as *CoercionError.
func Coerce(t Type, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.(bool); ok && t == TypeBoolean {
		return b, nil
	}
	if c, ok := raw.(render.Calendar); ok {
		if v, ok := calendarValue(t, c); ok {
			return v, nil
		}
	}

	text := textOf(raw)
	if t == TypeString {
		return text, nil
	}
	if text == "" {
		return nil, nil
	}

	v, err := parseText(t, text)
	if err != nil {
		return nil, &CoercionError{Type: t, Raw: text, Err: err}
	}
	return v, nil
}

func textOf(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func parseText(t Type, s string) (any, error) {
	switch t {
	case TypeBoolean:
		switch {
		case strings.EqualFold(s, "true"):
			return true, nil
		case strings.EqualFold(s, "false"):
			return false, nil
		}
		return nil, fmt.Errorf("not a boolean")
	case TypeByte:
		v, err := strconv.ParseInt(s, 10, 8)
		return int8(v), err
	case TypeShort:
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	case TypeInt:
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case TypeLong:
		return strconv.ParseInt(s, 10, 64)
	case TypeFloat:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case TypeDouble:
		return strconv.ParseFloat(s, 64)
	case TypeDate:
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, err
		}
		return int32(d.UnixMilli() / millisPerDay), nil
	case TypeTime:
		d, err := time.Parse(timeLayout, s)
		if err != nil {
			return nil, err
		}
		ms := (d.Hour()*3600 + d.Minute()*60 + d.Second()) * 1000
		return int32(ms), nil
	case TypeTimestamp:
		d, err := time.Parse(timestampLayout, s)
		if err != nil {
			return nil, err
		}
		return d.UnixMilli(), nil
	case TypeUUID:
		return uuid.Parse(s)
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

// calendarValue converts a bound temporal literal to a temporal type. The
// civil fields of c are read in its own location.
func calendarValue(t Type, c render.Calendar) (any, bool) {
	y, m, d := c.Time.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli() / millisPerDay
	ms := int64(c.Time.Hour()*3600+c.Time.Minute()*60+c.Time.Second())*1000 + int64(c.Time.Nanosecond())/int64(time.Millisecond)

	switch t {
	case TypeDate:
		if c.Kind == render.TimeOfDay {
			return nil, false
		}
		return int32(days), true
	case TypeTime:
		if c.Kind == render.Date {
			return nil, false
		}
		return int32(ms), true
	case TypeTimestamp:
		switch c.Kind {
		case render.Date:
			return days * millisPerDay, true
		case render.TimeOfDay:
			return ms, true
		}
		return c.Time.UnixMilli(), true
	}
	return nil, false
}
