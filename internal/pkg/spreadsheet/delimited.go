package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"strings"
	"unicode/utf8"
)

// candidateSeparators are tried when sniffing delimited text.
var candidateSeparators = []rune{',', '\t', ';'}

// sniffLines is how many non-empty lines are inspected to pick a separator.
const sniffLines = 20

func decodeDelimited(data []byte) (Grid, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, ErrNotText
	}

	sep, ok := SniffSeparator(string(data))
	if !ok {
		return nil, ErrNoDelimiter
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return trimGrid(rows), nil
}

// SniffSeparator picks the candidate separator that appears on the most sampled
// lines, breaking ties by total count. It reports false when no candidate occurs.
func SniffSeparator(text string) (rune, bool) {
	var sampled []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		sampled = append(sampled, line)
		if len(sampled) == sniffLines {
			break
		}
	}

	best, bestLines, bestTotal := rune(0), 0, 0
	for _, sep := range candidateSeparators {
		lines, total := 0, 0
		for _, line := range sampled {
			if n := strings.Count(line, string(sep)); n > 0 {
				lines++
				total += n
			}
		}
		if lines > bestLines || (lines == bestLines && total > bestTotal) {
			best, bestLines, bestTotal = sep, lines, total
		}
	}

	return best, bestLines > 0
}
