package builtin

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativePattern = regexp.MustCompile(`\bin\s+(\d+)\s*(minute|minutes|hour|hours|day|days)\b`)
	clockHMPattern  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	clockHPattern   = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
)

var isoLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 3:04 pm",
	"2006-01-02 3 pm",
}

// ParseWhen interprets a natural-language time expression relative to now.
// Supported forms: "in 10 minutes", "tomorrow at 6 pm", "today at 18:30",
// "9:30 am", and ISO-like "2026-03-01 18:30". A bare clock time that already
// passed rolls over to the next day.
func ParseWhen(raw string, now time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return time.Time{}, false
	}

	if m := relativePattern.FindStringSubmatch(text); m != nil {
		amount, _ := strconv.Atoi(m[1])
		switch {
		case strings.HasPrefix(m[2], "minute"):
			return now.Add(time.Duration(amount) * time.Minute), true
		case strings.HasPrefix(m[2], "hour"):
			return now.Add(time.Duration(amount) * time.Hour), true
		default:
			return now.AddDate(0, 0, amount), true
		}
	}

	cleaned := strings.Join(strings.Fields(text), " ")
	for _, layout := range isoLayouts {
		if dt, err := time.ParseInLocation(layout, cleaned, now.Location()); err == nil {
			return dt, true
		}
	}

	hour, minute, haveClock := parseClock(text)

	var dayOffset int
	haveDay := false
	switch {
	case strings.Contains(text, "tomorrow"):
		dayOffset, haveDay = 1, true
	case strings.Contains(text, "today"), strings.Contains(text, "tonight"):
		dayOffset, haveDay = 0, true
	}

	if !haveClock {
		return time.Time{}, false
	}

	base := now.AddDate(0, 0, dayOffset)
	dt := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, now.Location())
	if dt.Before(now) && (!haveDay || dayOffset == 0) {
		dt = dt.AddDate(0, 0, 1)
	}
	return dt, true
}

func parseClock(text string) (hour, minute int, ok bool) {
	if m := clockHMPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h <= 23 && mi <= 59 {
			return adjustMeridiem(h, m[3]), mi, true
		}
	}
	if m := clockHPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h >= 1 && h <= 12 {
			return adjustMeridiem(h, m[2]), 0, true
		}
	}
	return 0, 0, false
}

func adjustMeridiem(hour int, meridiem string) int {
	switch meridiem {
	case "pm":
		if hour < 12 {
			return hour + 12
		}
	case "am":
		if hour == 12 {
			return 0
		}
	}
	return hour
}
