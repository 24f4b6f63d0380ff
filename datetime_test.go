package coinledger

import (
	"testing"
	"time"
)

func TestParseDatetime(t *testing.T) {
	testCases := []struct {
		in   string
		want Datetime
	}{
		{"2021-03-01", NewDay(2021, time.March, 1)},
		{"2021-03-01T10:30:00Z", NewDatetime(2021, time.March, 1, 10, 30, 0)},
	}
	for _, tc := range testCases {
		got, err := ParseDatetime(tc.in)
		if err != nil {
			t.Errorf("ParseDatetime(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDatetime(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	if _, err := ParseDatetime("march the first"); err == nil {
		t.Errorf("ParseDatetime accepted garbage")
	}
}

func TestDatetimeDayBoundaries(t *testing.T) {
	d := NewDatetime(2021, time.March, 1, 10, 30, 0)

	if !d.StartOfDay().SameDay(d) || !d.EndOfDay().SameDay(d) {
		t.Errorf("day boundaries of %s left the day", d)
	}
	if !d.StartOfDay().Before(d) || !d.EndOfDay().After(d) {
		t.Errorf("%s is not inside [%s, %s]", d, d.StartOfDay(), d.EndOfDay())
	}
	if d.EndOfDay().AddDays(0) != d.EndOfDay() {
		t.Errorf("AddDays(0) moved the date")
	}
	if next := d.AddDays(1); next.SameDay(d) || next.Day() != d.Day()+1 {
		t.Errorf("AddDays(1) = %s, want the next day", next)
	}
}

func TestDatetimeDayIndex(t *testing.T) {
	d := NewDay(2021, time.March, 1)
	if got := DayFromIndex(d.Day()); !got.SameDay(d) {
		t.Errorf("DayFromIndex(Day()) = %s, want the day of %s", got, d)
	}
	// the index is the count of days since the unix epoch
	if got := NewDay(1970, time.January, 2).Day(); got != 1 {
		t.Errorf("Day(1970-01-02) = %d, want 1", got)
	}
}

func TestDatetimeFormats(t *testing.T) {
	d := NewDatetime(2021, time.March, 1, 10, 30, 0)
	if got := d.DayString(); got != "2021-03-01" {
		t.Errorf("DayString() = %q", got)
	}
	if got := d.IRSDayString(); got != "03/01/2021" {
		t.Errorf("IRSDayString() = %q", got)
	}
	if got := d.String(); got != "2021-03-01T10:30:00Z" {
		t.Errorf("String() = %q", got)
	}
}

func TestDatetimeCompare(t *testing.T) {
	a := NewDay(2021, time.March, 1)
	b := NewDay(2021, time.June, 1)
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Errorf("Compare is inconsistent")
	}
	if got := a.AbsDiff(b); got != b.AbsDiff(a) || got != 92*24*3600 {
		t.Errorf("AbsDiff = %d, want %d", got, 92*24*3600)
	}
}
