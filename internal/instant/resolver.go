// Package instant resolves natural-language time expressions ("tomorrow 5pm",
// "in 3 days", "friday", "2025-03-01") to concrete instants.
package instant

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultHour is the clock hour given to day keywords such as "tomorrow".
const DefaultHour = 9

// Resolver turns text into an instant relative to its clock. The zero value
// is not usable; construct one with New.
type Resolver struct {
	now        func() time.Time
	loc        *time.Location
	monthFirst bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLocation sets the zone local clock times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithMonthFirst selects mm/dd (true) or dd/mm (false) for ambiguous
// numeric dates.
func WithMonthFirst(monthFirst bool) Option {
	return func(r *Resolver) { r.monthFirst = monthFirst }
}

// New returns a Resolver using the wall clock in the local zone.
func New(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now, loc: time.Local, monthFirst: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	relativeRe  = regexp.MustCompile(`^in\s+(\d+)\s*(day|hour|minute|week)s?$`)
	dayWordRe   = regexp.MustCompile(`\b(today|tomorrow)\b`)
	clockRe     = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b|\b(\d{1,2}):(\d{2})\b`)
	bareClockRe = regexp.MustCompile(`^(?:at\s+)?(\d{1,2}(?::\d{2})?\s*(?:am|pm)|\d{1,2}:\d{2})$`)
	pastRe      = regexp.MustCompile(`\b(yesterday|ago|last)\b`)
	calendarRe  = regexp.MustCompile(`\b(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun|` +
		`monday|tuesday|wednesday|thursday|friday|saturday|sunday|` +
		`jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec|` +
		`january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	weekdayRe  = regexp.MustCompile(`^(?:(next|this|on)\s+)?([a-z]+)(?:\s+(?:at\s+)?(.+))?$`)
	monthDayRe = regexp.MustCompile(`^(?:on\s+)?([a-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?(?:\s+(?:at\s+)?(.+))?$`)
	digitsRe   = regexp.MustCompile(`^\d+$`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Resolve returns the instant text denotes. The boolean is false when no
// step recognises the text; that is an ordinary outcome, not a failure.
func (r *Resolver) Resolve(text string) (time.Time, bool) {
	raw := strings.Join(strings.Fields(text), " ")
	s := strings.ToLower(raw)
	if s == "" {
		return time.Time{}, false
	}
	now := r.now().In(r.loc)

	if t, ok := r.keyword(s, now); ok {
		return t, true
	}
	if t, ok := relative(s, now); ok {
		return t, true
	}
	if t, ok := dayWithClock(s, now); ok {
		return t, true
	}
	if t, ok := r.fuzzy(s, raw, now); ok {
		if t.Before(now) && sameDay(t, now) && !pastRe.MatchString(s) && !calendarRe.MatchString(s) {
			t = t.AddDate(0, 0, 1)
		}
		return t, true
	}
	return r.iso(raw)
}

func (r *Resolver) keyword(s string, now time.Time) (time.Time, bool) {
	switch s {
	case "now":
		return now, true
	case "today":
		return atClock(now, DefaultHour, 0), true
	case "tomorrow":
		return atClock(now.AddDate(0, 0, 1), DefaultHour, 0), true
	case "yesterday":
		return atClock(now.AddDate(0, 0, -1), DefaultHour, 0), true
	}
	return time.Time{}, false
}

func relative(s string, now time.Time) (time.Time, bool) {
	m := relativeRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch m[2] {
	case "minute":
		return now.Add(time.Duration(n) * time.Minute), true
	case "hour":
		return now.Add(time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, n), true
	default:
		return now.AddDate(0, 0, 7*n), true
	}
}

func dayWithClock(s string, now time.Time) (time.Time, bool) {
	m := dayWordRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	hour, minute, ok := parseClock(s)
	if !ok {
		return time.Time{}, false
	}
	day := now
	if m[1] == "tomorrow" {
		day = now.AddDate(0, 0, 1)
	}
	return atClock(day, hour, minute), true
}

// fuzzy covers free-form phrases: a bare clock time, a weekday with an
// optional time, a month and day, and anything dateparse understands.
// Fields the text leaves out are taken from now.
func (r *Resolver) fuzzy(s, raw string, now time.Time) (time.Time, bool) {
	if bareClockRe.MatchString(s) {
		hour, minute, ok := parseClock(s)
		if !ok {
			return time.Time{}, false
		}
		return atClock(now, hour, minute), true
	}
	if t, ok := weekday(s, now); ok {
		return t, true
	}
	if t, ok := monthDay(s, now); ok {
		return t, true
	}
	if digitsRe.MatchString(s) && len(s) < 8 {
		return time.Time{}, false
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "on "), "On ")
	t, err := dateparse.ParseIn(raw, r.loc, dateparse.PreferMonthFirst(r.monthFirst))
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() == 0 {
		t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, r.loc)
	}
	return t, true
}

func weekday(s string, now time.Time) (time.Time, bool) {
	m := weekdayRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	wd, ok := weekdays[m[2]]
	if !ok {
		return time.Time{}, false
	}
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	if days == 0 && m[1] == "next" {
		days = 7
	}
	day := now.AddDate(0, 0, days)
	if m[3] == "" {
		return day, true
	}
	hour, minute, ok := parseClock(m[3])
	if !ok || !bareClockRe.MatchString(m[3]) {
		return time.Time{}, false
	}
	return atClock(day, hour, minute), true
}

func monthDay(s string, now time.Time) (time.Time, bool) {
	m := monthDayRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := months[m[1]]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[2])
	year := now.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	hour, minute := now.Hour(), now.Minute()
	if m[4] != "" {
		var ok bool
		hour, minute, ok = parseClock(m[4])
		if !ok || !bareClockRe.MatchString(m[4]) {
			return time.Time{}, false
		}
	}
	t := time.Date(year, month, day, hour, minute, 0, 0, now.Location())
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func (r *Resolver) iso(text string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, text, r.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock finds the first clock-time fragment ("5pm", "5:30 pm",
// "17:45") in s.
func parseClock(s string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	var h, mins, meridiem string
	if m[1] != "" {
		h, mins, meridiem = m[1], m[2], m[3]
	} else {
		h, mins = m[4], m[5]
	}
	hour, _ = strconv.Atoi(h)
	if mins != "" {
		minute, _ = strconv.Atoi(mins)
	}
	if minute > 59 {
		return 0, 0, false
	}
	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}

func atClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
