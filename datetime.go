package coinledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// DatetimeFormat is the format used to represent timestamps as strings.
const DatetimeFormat = time.RFC3339

// DayFormat is the day-only format, ISO-8601.
const DayFormat = "2006-01-02"

// irsDayFormat is the MM/DD/YYYY form used in gain/loss listings.
const irsDayFormat = "01/02/2006"

const secondsPerDay = 24 * 3600

// Datetime represents a point in time with second resolution, stored as
// a UTC unix timestamp. The zero value is the unix epoch.
type Datetime struct {
	sec int64
}

// NewDatetime returns a normalized Datetime for the given UTC calendar values.
func NewDatetime(year int, month time.Month, day, hour, min, sec int) Datetime {
	return Datetime{sec: time.Date(year, month, day, hour, min, sec, 0, time.UTC).Unix()}
}

// NewDay returns the Datetime at midnight UTC of the given calendar day.
func NewDay(year int, month time.Month, day int) Datetime {
	return NewDatetime(year, month, day, 0, 0, 0)
}

// Unix returns the Datetime for a unix timestamp in seconds.
func Unix(sec int64) Datetime { return Datetime{sec: sec} }

// Now returns the current time truncated to the second.
func Now() Datetime { return Datetime{sec: time.Now().Unix()} }

// ParseDatetime parses an RFC3339 timestamp, or a plain ISO day taken at
// midnight UTC.
func ParseDatetime(s string) (Datetime, error) {
	if t, err := time.Parse(DatetimeFormat, s); err == nil {
		return Datetime{sec: t.Unix()}, nil
	}
	t, err := time.ParseInLocation(DayFormat, s, time.UTC)
	if err != nil {
		return Datetime{}, fmt.Errorf("cannot parse %q as a date and time", s)
	}
	return Datetime{sec: t.Unix()}, nil
}

// time returns the canonical time.Time representation, in UTC.
func (d Datetime) time() time.Time { return time.Unix(d.sec, 0).UTC() }

// Unix returns the timestamp in seconds since the unix epoch.
func (d Datetime) Unix() int64 { return d.sec }

// Day returns the day index floor(unix/86400), the unit of the daily
// price series.
func (d Datetime) Day() int64 {
	day := d.sec / secondsPerDay
	if d.sec < 0 && d.sec%secondsPerDay != 0 {
		day--
	}
	return day
}

// EndOfDay returns 23:59:59 UTC of the same calendar day.
func (d Datetime) EndOfDay() Datetime {
	return Datetime{sec: (d.Day()+1)*secondsPerDay - 1}
}

// StartOfDay returns midnight UTC of the same calendar day.
func (d Datetime) StartOfDay() Datetime {
	return Datetime{sec: d.Day() * secondsPerDay}
}

// SameDay reports whether d and x fall on the same UTC calendar day.
func (d Datetime) SameDay(x Datetime) bool { return d.Day() == x.Day() }

// AddDays returns a new Datetime shifted by the given number of days.
func (d Datetime) AddDays(n int) Datetime {
	return Datetime{sec: d.sec + int64(n)*secondsPerDay}
}

// AbsDiff returns the absolute difference between two datetimes in seconds.
func (d Datetime) AbsDiff(x Datetime) int64 {
	if d.sec > x.sec {
		return d.sec - x.sec
	}
	return x.sec - d.sec
}

func (d Datetime) Before(x Datetime) bool { return d.sec < x.sec }
func (d Datetime) After(x Datetime) bool  { return d.sec > x.sec }
func (d Datetime) IsZero() bool           { return d.sec == 0 }

// Compare returns -1, 0 or 1 comparing d to x chronologically.
func (d Datetime) Compare(x Datetime) int {
	switch {
	case d.sec < x.sec:
		return -1
	case d.sec > x.sec:
		return 1
	default:
		return 0
	}
}

// String formats the timestamp in RFC3339 UTC.
func (d Datetime) String() string { return d.time().Format(DatetimeFormat) }

// DayString formats the day of the timestamp in ISO-8601.
func (d Datetime) DayString() string { return d.time().Format(DayFormat) }

// IRSDayString formats the day the way gain/loss forms expect it.
func (d Datetime) IRSDayString() string { return d.time().Format(irsDayFormat) }

// DayFromIndex returns the Datetime at midnight UTC of a day index.
func DayFromIndex(day int64) Datetime { return Datetime{sec: day * secondsPerDay} }

// MarshalJSON implements the json.Marshaler interface.
func (d Datetime) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Datetime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDatetime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
