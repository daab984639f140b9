package timeutil

import "time"

type ParserFunc func(value string) (time.Time, error)

var (
	// DefaultLayout keeps sub-second precision so short staleness
	// windows survive a marshal round trip.
	DefaultLayout     = time.RFC3339Nano
	DefaultParserFunc = func(value string) (time.Time, error) {
		return time.Parse(DefaultLayout, value)
	}
)

// Format renders t in DefaultLayout.
func Format(t time.Time) string {
	return t.Format(DefaultLayout)
}
