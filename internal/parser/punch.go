package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NoValue marks a punch that could not be determined.
const NoValue = "--:--"

var (
	directionTag  = regexp.MustCompile(`(?i)\((in|out)\)`)
	parenthetical = regexp.MustCompile(`\(.*?\)`)
)

// nullLike in-duration values classify a row as absent.
var nullLike = map[string]struct{}{
	"":      {},
	"00:00": {},
	"0:00":  {},
	"nil":   {},
	"-":     {},
	"none":  {},
}

// IsNullLike reports whether v, case-insensitively, is one of the null-like tokens.
func IsNullLike(v string) bool {
	_, ok := nullLike[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// ClassifyStatus returns Absent for a null-like in-duration, Present otherwise.
func ClassifyStatus(inDuration string) Status {
	if IsNullLike(inDuration) {
		return StatusAbsent
	}
	return StatusPresent
}

// ParsePunchLog returns the first and last timestamps of a punch log such as
// "09:02(in),13:00(out),13:45(in),18:31(out)". Both are NoValue when the log
// holds no timestamps.
func ParsePunchLog(log string) (first, last string) {
	log = strings.TrimSpace(log)
	if log == "" || strings.EqualFold(log, "nan") {
		return NoValue, NoValue
	}

	var times []string
	for _, token := range strings.Split(directionTag.ReplaceAllString(log, ""), ",") {
		if token = strings.TrimSpace(token); strings.Contains(token, ":") {
			times = append(times, token)
		}
	}
	if len(times) == 0 {
		return NoValue, NoValue
	}
	return times[0], times[len(times)-1]
}

// ResolvePunches parses the punch log and falls back to the raw in/out duration
// text when it looks like a clock time.
func ResolvePunches(punchLog, inDuration, outDuration string) (first, last string) {
	first, last = ParsePunchLog(punchLog)
	if first == NoValue && strings.Contains(inDuration, ":") {
		first = strings.TrimSpace(inDuration)
	}
	if last == NoValue && strings.Contains(outDuration, ":") {
		last = strings.TrimSpace(outDuration)
	}
	return first, last
}

// ToMinutes converts "H:MM" (annotations allowed, seconds ignored) to minutes
// since midnight. Unparseable input counts as zero.
func ToMinutes(ts string) int {
	if !strings.Contains(ts, ":") {
		return 0
	}
	parts := strings.Split(strings.TrimSpace(parenthetical.ReplaceAllString(ts, "")), ":")
	if len(parts) < 2 {
		return 0
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0
	}
	return h*60 + m
}

// FormatMinutes renders minutes as zero-padded "HH:MM".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TotalDuration is the on-site span between first-in and last-out. A last-out
// earlier than first-in clamps to zero. When either punch is missing it falls back
// to the sum of the in and out durations.
func TotalDuration(firstIn, lastOut, inDuration, outDuration string) string {
	var total int
	if firstIn != NoValue && lastOut != NoValue {
		total = ToMinutes(lastOut) - ToMinutes(firstIn)
	} else {
		total = ToMinutes(inDuration) + ToMinutes(outDuration)
	}
	if total < 0 {
		total = 0
	}
	return FormatMinutes(total)
}

// clockOrNoValue keeps v when it looks like a clock time.
func clockOrNoValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.Contains(v, ":") {
		return v
	}
	return NoValue
}
