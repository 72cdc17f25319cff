package clock

import "time"

const layout = "2006-01-02T15:04:05"

// Now returns the current time in MYOB date-time format.
func Now() string {
	return time.Now().Format(layout)
}

func Format(t time.Time) string {
	return t.Format(layout)
}

func Layout() string {
	return layout
}
