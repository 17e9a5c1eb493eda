package booking

import (
	"strings"
	"time"
)

// Duration is one of the four reservation lengths a guest can pick.
type Duration string

const (
	Duration15Min Duration = "15min"
	Duration30Min Duration = "30min"
	Duration45Min Duration = "45min"
	Duration1Hour Duration = "1h"
)

var durationSpans = map[Duration]time.Duration{
	Duration15Min: 15 * time.Minute,
	Duration30Min: 30 * time.Minute,
	Duration45Min: 45 * time.Minute,
	Duration1Hour: 60 * time.Minute,
}

// Durations lists the accepted tokens, shortest first.
func Durations() []Duration {
	return []Duration{Duration15Min, Duration30Min, Duration45Min, Duration1Hour}
}

// ParseDuration maps a wire token to a Duration. Anything outside the
// closed set is an InvalidArgument on field "duration".
func ParseDuration(token string) (Duration, error) {
	d := Duration(token)
	if _, ok := durationSpans[d]; !ok {
		tokens := make([]string, 0, len(durationSpans))
		for _, d := range Durations() {
			tokens = append(tokens, d.String())
		}
		return "", InvalidArgument("duration", "duration must be one of "+strings.Join(tokens, ", "))
	}
	return d, nil
}

func (d Duration) Span() time.Duration {
	return durationSpans[d]
}

func (d Duration) Valid() bool {
	_, ok := durationSpans[d]
	return ok
}

func (d Duration) String() string {
	return string(d)
}
