package timezone

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata"
)

const DefaultTimezone = "UTC"

// zone-less layouts, read in the restaurant's location
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var (
	ErrInvalidInstant = errors.New("invalid timestamp, expected ISO-8601")
	ErrSubSecond      = errors.New("timestamp must not carry fractional seconds")
)

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// Location resolves tz, falling back to fallback and then to UTC.
func Location(tz string, fallback string) *time.Location {
	for _, name := range []string{tz, fallback} {
		if !IsValid(name) {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// NowIn is the current wall clock in tz, resolved like Location.
func NowIn(tz, fallback string) time.Time {
	return time.Now().In(Location(tz, fallback))
}

// ParseInstant reads an ISO-8601 timestamp. Values carrying an offset are
// taken as is; zone-less values (what an HTML datetime-local input sends)
// are read in loc. Fractional seconds must be zero (".000Z" is fine) since
// reservations are held at second precision. The result is in UTC.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidInstant
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return wholeSecond(t)
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return wholeSecond(t)
		}
	}
	return time.Time{}, ErrInvalidInstant
}

func wholeSecond(t time.Time) (time.Time, error) {
	if t.Nanosecond() != 0 {
		return time.Time{}, ErrSubSecond
	}
	return t.UTC(), nil
}

// DayBounds returns [00:00, next 00:00) of the given date in loc.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return d, d.AddDate(0, 0, 1), nil
}
