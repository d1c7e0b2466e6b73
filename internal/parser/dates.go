package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

type datePattern struct {
	re    *regexp.Regexp
	build func(m []string) (time.Time, bool)
}

// datePatterns are tried in order; the first one that yields a valid calendar
// date wins. Numeric four-digit-year dates are day first.
var datePatterns = []datePattern{
	{
		// 01-Jan-2026, 1/Jan/2026, 1 January 2026
		re: regexp.MustCompile(`(?i)\b(\d{1,2})[-/ ]([a-z]{3,9})[-/ ,]+(\d{4})\b`),
		build: func(m []string) (time.Time, bool) {
			month, ok := monthFromName(m[2])
			if !ok {
				return time.Time{}, false
			}
			return makeDate(atoi(m[3]), month, atoi(m[1]))
		},
	},
	{
		// 05/01/2026, 5-1-2026, 05.01.2026
		re: regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})\b`),
		build: func(m []string) (time.Time, bool) {
			return makeDate(atoi(m[3]), time.Month(atoi(m[2])), atoi(m[1]))
		},
	},
	{
		// 2026-01-05, 2026/1/5
		re: regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`),
		build: func(m []string) (time.Time, bool) {
			return makeDate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]))
		},
	},
	{
		// Jan 5, 2026
		re: regexp.MustCompile(`(?i)\b([a-z]{3,9})\.? (\d{1,2}),? (\d{4})\b`),
		build: func(m []string) (time.Time, bool) {
			month, ok := monthFromName(m[1])
			if !ok {
				return time.Time{}, false
			}
			return makeDate(atoi(m[3]), month, atoi(m[2]))
		},
	},
}

// Two-digit-year cells. Dashed values follow the spreadsheet default "mm-dd-yy"
// rendering; slashed values are day first.
var (
	shortDashed   = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{2})$`)
	shortSlashed  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})$`)
	decimalNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ExtractDate finds the first recognizable date inside free text.
func ExtractDate(text string) (time.Time, bool) {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			if t, ok := p.build(m); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ParseDate parses a single date cell: any ExtractDate shape, a two-digit-year
// short date, or a spreadsheet serial day number.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if decimalNumber.MatchString(value) {
		// Keep to a realistic serial range so plain years and codes are not dates.
		serial, err := strconv.ParseFloat(value, 64)
		if err == nil && serial >= 20000 && serial <= 80000 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return makeDate(t.Year(), t.Month(), t.Day())
			}
		}
		return time.Time{}, false
	}

	if t, ok := ExtractDate(value); ok {
		return t, true
	}
	if m := shortDashed.FindStringSubmatch(value); m != nil {
		return makeDate(2000+atoi(m[3]), time.Month(atoi(m[1])), atoi(m[2]))
	}
	if m := shortSlashed.FindStringSubmatch(value); m != nil {
		return makeDate(2000+atoi(m[3]), time.Month(atoi(m[2])), atoi(m[1]))
	}
	return time.Time{}, false
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func hasDateSeparator(v string) bool {
	return strings.ContainsAny(v, "-/.")
}

func monthFromName(name string) (time.Month, bool) {
	if len(name) < 3 {
		return 0, false
	}
	m, ok := months[strings.ToLower(name[:3])]
	return m, ok
}

// makeDate builds a UTC midnight date and rejects overflowing components.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if year < 1900 || month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
