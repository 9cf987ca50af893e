package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/tj/go-naturaldate"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2})(?:\s*[:hH.]\s*(\d{2})?)?(?::\d{2})?\s*([aApP][mM])?$`)

// NormalizeDate returns date as YYYY-MM-DD. Anything that is not already an
// ISO date ("tomorrow", "next monday") is resolved against ref, looking forward.
func NormalizeDate(date string, ref time.Time) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", domain.ErrInvalidSlot
	}
	if len(date) >= len(domain.DateLayout) {
		if t, err := time.Parse(domain.DateLayout, date[:len(domain.DateLayout)]); err == nil {
			return t.Format(domain.DateLayout), nil
		}
	}
	if isTodayWord(date) {
		return ref.Format(domain.DateLayout), nil
	}
	t, err := naturaldate.Parse(date, ref, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return "", fmt.Errorf("%w: date %q", domain.ErrInvalidSlot, date)
	}
	// Unrecognised text comes back as ref itself.
	if sameDay(t, ref) && !mentionsToday(date) {
		return "", fmt.Errorf("%w: date %q", domain.ErrInvalidSlot, date)
	}
	return t.Format(domain.DateLayout), nil
}

var todayWords = []string{"today", "tonight", "now", "aujourd'hui", "aujourd’hui", "ce soir"}

func isTodayWord(date string) bool {
	date = strings.ToLower(date)
	for _, w := range todayWords {
		if date == w {
			return true
		}
	}
	return false
}

func mentionsToday(date string) bool {
	date = strings.ToLower(date)
	for _, w := range todayWords {
		if strings.Contains(date, w) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// NormalizeClock returns a time of day as HH:MM. It accepts "10:00",
// "10:00:00", "10h", "10h30", "9.15" and 12-hour forms such as "3pm".
func NormalizeClock(clock string) (string, error) {
	clock = strings.TrimSpace(clock)
	m := clockPattern.FindStringSubmatch(clock)
	if m == nil {
		return "", fmt.Errorf("%w: time %q", domain.ErrInvalidSlot, clock)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("%w: time %q", domain.ErrInvalidSlot, clock)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// resolveSlot normalises the decision's date and time and rejects slots
// that start before now.
func resolveSlot(decision *domain.SchedulingDecision, now time.Time) (domain.CivilDate, domain.ClockTime, error) {
	date, err := NormalizeDate(decision.Date, now)
	if err != nil {
		return "", "", err
	}
	clock, err := NormalizeClock(decision.Time)
	if err != nil {
		return "", "", err
	}

	start, err := time.ParseInLocation(domain.DateLayout+" "+domain.ClockLayout, date+" "+clock, now.Location())
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrInvalidSlot, err)
	}
	if start.Before(now.Truncate(time.Minute)) {
		return "", "", fmt.Errorf("%w: %s %s", domain.ErrSlotInPast, date, clock)
	}
	return domain.CivilDate(date), domain.ClockTime(clock), nil
}
