package util

import "time"

var loc = time.UTC

// SetLocation fixes the evaluation timezone for the whole process. All
// holiday and birthday matching happens against this single zone; recipients
// in other zones may see a message on their adjacent calendar day.
func SetLocation(l *time.Location) {
	loc = l
}

func Now() time.Time {
	return time.Now().In(loc)
}

// MonthDay renders t as the recurring "MM-DD" key used by holiday matching.
func MonthDay(t time.Time) string {
	return t.Format("01-02")
}

// Day truncates t to midnight in the evaluation timezone.
func Day(t time.Time) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
