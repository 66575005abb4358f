package domain

import (
	"fmt"
	"strings"
	"time"
)

const GlobalStatsID = "global"

// LogID = "{txHash}-{logIndex}"; derived from the log position so that
// reprocessing the same log cannot create a second row
func LogID(txHash string, logIndex uint) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(txHash), logIndex)
}

// MetadataID = "{personaId}-{key}"
func MetadataID(personaID, key string) string {
	return personaID + "-" + key
}

// StakeID = "{poolId}-{lowercased address}"
func StakeID(poolID, user string) string {
	return poolID + "-" + strings.ToLower(user)
}

// DayID truncates a timestamp to its UTC calendar day, "YYYY-MM-DD"
func DayID(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// PersonaDayID = "{personaId}-{YYYY-MM-DD}"
func PersonaDayID(personaID, day string) string {
	return personaID + "-" + day
}

// DayWindow returns the half-open UTC window [start, end) for a "YYYY-MM-DD" id
func DayWindow(day string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid day id %q: %w", day, err)
	}
	start = start.UTC()
	return start, start.Add(24 * time.Hour), nil
}

// InDay reports whether ts falls inside the half-open UTC window of day start
func InDay(ts, start, end time.Time) bool {
	ts = ts.UTC()
	return !ts.Before(start) && ts.Before(end)
}
