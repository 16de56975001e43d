package mentor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for every extracted date.
const DateLayout = "2006-01-02"

var (
	reISODate   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reSlashDate = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`)
	reMonthDay  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s*(\d{4})\b)?`)
	reNextDay   = regexp.MustCompile(`\bnext\s+(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	reWeekday   = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// ExtractDate finds a calendar date in text relative to now and returns it in
// DateLayout. Forms are tried in priority order: ISO, M/D[/Y], month name and
// day, today/tomorrow, "next <weekday>", bare weekday.
func ExtractDate(text string, now time.Time) (string, bool) {
	s := strings.ToLower(text)
	today := midnight(now)

	if m := reISODate.FindStringSubmatch(s); m != nil {
		if d, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), now.Location()); ok {
			return d.Format(DateLayout), true
		}
	}

	if m := reSlashDate.FindStringSubmatch(s); m != nil {
		month, day := atoi(m[1]), atoi(m[2])
		if m[3] != "" {
			year := atoi(m[3])
			if len(m[3]) == 2 {
				year += 2000
			}
			if d, ok := makeDate(year, month, day, now.Location()); ok {
				return d.Format(DateLayout), true
			}
		} else if d, ok := upcoming(today, month, day); ok {
			return d.Format(DateLayout), true
		}
	}

	if m := reMonthDay.FindStringSubmatch(s); m != nil {
		month, day := int(monthNames[m[1]]), atoi(m[2])
		if m[3] != "" {
			if d, ok := makeDate(atoi(m[3]), month, day, now.Location()); ok {
				return d.Format(DateLayout), true
			}
		} else if d, ok := upcoming(today, month, day); ok {
			return d.Format(DateLayout), true
		}
	}

	norm := normalize(s)
	switch {
	case hasWord(norm, "today"):
		return today.Format(DateLayout), true
	case hasWord(norm, "tomorrow"):
		return today.AddDate(0, 0, 1).Format(DateLayout), true
	}

	if m := reNextDay.FindStringSubmatch(s); m != nil {
		ahead := daysUntil(today.Weekday(), weekdays[m[1]])
		if ahead < 7 {
			ahead += 7
		}
		return today.AddDate(0, 0, ahead).Format(DateLayout), true
	}

	if m := reWeekday.FindStringSubmatch(s); m != nil {
		return today.AddDate(0, 0, daysUntil(today.Weekday(), weekdays[m[1]])).Format(DateLayout), true
	}

	return "", false
}

// FormatDate renders an ISO date for humans, e.g. "Thursday, December 18, 2025".
// Unparseable input is returned unchanged.
func FormatDate(iso string) string {
	d, err := time.Parse(DateLayout, iso)
	if err != nil {
		return iso
	}
	return d.Format("Monday, January 2, 2006")
}

// daysUntil counts forward from one weekday to the next occurrence of
// another, in 1..7. The same weekday is a full week away.
func daysUntil(from, to time.Weekday) int {
	d := (int(to) - int(from) + 7) % 7
	if d == 0 {
		d = 7
	}
	return d
}

// upcoming resolves a month/day without a year: this year unless that date
// has already passed, in which case next year.
func upcoming(today time.Time, month, day int) (time.Time, bool) {
	d, ok := makeDate(today.Year(), month, day, today.Location())
	if !ok {
		return time.Time{}, false
	}
	if d.Before(today) {
		return makeDate(today.Year()+1, month, day, today.Location())
	}
	return d, true
}

// makeDate rejects dates that time.Date would silently normalize (Feb 30).
func makeDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
