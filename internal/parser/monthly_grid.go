package parser

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/spreadsheet"
)

// DefaultScanRows bounds the search for header rows.
const DefaultScanRows = 50

// monthlyLookahead is how many rows below an employee label may hold its
// In Time / Out Time rows.
const monthlyLookahead = 6

var (
	dayOneToken = regexp.MustCompile(`(?i)\bday\s*1\b`)
	dayLabel    = regexp.MustCompile(`(?i)^day\s*(\d{1,2})$`)

	employeeLabel = regexp.MustCompile(`(?i)^emp(?:loyee)?\.?\s*(?:code|id|no|number)\b\.?\s*[:\-]*\s*`)
	nameLabel     = regexp.MustCompile(`(?i)^(?:emp(?:loyee)?\.?\s*)?name\b\.?\s*[:\-]*\s*`)
	otherLabel    = regexp.MustCompile(`(?i)^(?:dept|department|designation|branch|shift|status|total)\b`)
	inTimeLabel   = regexp.MustCompile(`(?i)^in\s*time\b`)
	outTimeLabel  = regexp.MustCompile(`(?i)^out\s*time\b`)

	monthNameToken = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
	yearToken      = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	// inlineLabel finds a following label inside one cell, as in "Emp Code: 5 Name: Alice".
	inlineLabel = regexp.MustCompile(`(?i)\b(?:emp(?:loyee)?\.?\s*(?:code|id|no|number)|(?:emp(?:loyee)?\.?\s*)?name|dept|department|designation|branch|shift|status|total)\b\.?\s*[:\-]`)
)

// MonthlyGridExtractor reads month-at-a-glance exports: a "Day1..DayN" header,
// a row of dates below it, then per-employee blocks of "In Time"/"Out Time" rows
// aligned with the day columns.
type MonthlyGridExtractor struct {
	ScanRows int
	Now      func() time.Time
}

// Name implements Extractor.
func (MonthlyGridExtractor) Name() string { return FormatMonthlyGrid }

// TryExtract implements Extractor.
func (e MonthlyGridExtractor) TryExtract(grid spreadsheet.Grid) ([]Record, bool) {
	header, ok := e.findHeader(grid)
	if !ok {
		return nil, false
	}

	dates := e.MapDates(grid, header)
	if len(dates) == 0 {
		return nil, false
	}
	cols := make([]int, 0, len(dates))
	for c := range dates {
		cols = append(cols, c)
	}
	sort.Ints(cols)

	var records []Record
	for r := header + 2; r < len(grid); r++ {
		ref, ok := labelValue(grid[r], employeeLabel)
		if !ok {
			continue
		}
		name, _ := labelValue(grid[r], nameLabel)

		inRow, outRow := findInOutRows(grid, r)
		if inRow < 0 || outRow < 0 {
			continue
		}

		for _, c := range cols {
			in := grid.Cell(inRow, c)
			out := grid.Cell(outRow, c)
			firstIn, lastOut := clockOrNoValue(in), clockOrNoValue(out)
			records = append(records, Record{
				EmployeeRef:   ref,
				EmployeeName:  name,
				Date:          dates[c],
				FirstIn:       firstIn,
				LastOut:       lastOut,
				TotalDuration: TotalDuration(firstIn, lastOut, "", ""),
				PunchRecords:  joinPunches(in, out),
				Status:        ClassifyStatus(in),
				SourceFormat:  FormatMonthlyGrid,
			})
		}
		r = max(inRow, outRow)
	}

	return records, len(records) > 0
}

func (e MonthlyGridExtractor) findHeader(grid spreadsheet.Grid) (int, bool) {
	limit := e.ScanRows
	if limit <= 0 {
		limit = DefaultScanRows
	}
	for r := 0; r < len(grid) && r < limit; r++ {
		if dayOneToken.MatchString(spreadsheet.RowText(grid[r])) {
			return r, r+1 < len(grid)
		}
	}
	return 0, false
}

// MapDates maps each "DayN" column of the header row to a canonical date.
// Columns whose value cell below the header is empty are not mapped.
func (e MonthlyGridExtractor) MapDates(grid spreadsheet.Grid, header int) map[int]string {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	month, year := headerMonthYear(headerText(grid, header), now())

	dates := make(map[int]string)
	for c, label := range grid[header] {
		m := dayLabel.FindStringSubmatch(strings.TrimSpace(label))
		if m == nil {
			continue
		}
		value := grid.Cell(header+1, c)
		if value == "" {
			continue
		}

		if hasDateSeparator(value) {
			if t, ok := ParseDate(value); ok {
				dates[c] = FormatDate(t)
				continue
			}
		}
		if below := grid.Cell(header+2, c); hasDateSeparator(below) {
			if t, ok := ParseDate(below); ok {
				dates[c] = FormatDate(t)
				continue
			}
		}
		if t, ok := makeDate(year, month, atoi(m[1])); ok {
			dates[c] = FormatDate(t)
		}
	}
	return dates
}

func headerText(grid spreadsheet.Grid, header int) string {
	parts := make([]string, 0, header+1)
	for r := 0; r <= header; r++ {
		parts = append(parts, spreadsheet.RowText(grid[r]))
	}
	return strings.Join(parts, " ")
}

// headerMonthYear pulls the reporting month and year out of the header text,
// defaulting to the month and year of now.
func headerMonthYear(text string, now time.Time) (time.Month, int) {
	if t, ok := ExtractDate(text); ok {
		return t.Month(), t.Year()
	}

	month, year := now.Month(), now.Year()
	if m := monthNameToken.FindStringSubmatch(text); m != nil {
		month = months[strings.ToLower(m[1])]
	}
	if y := yearToken.FindString(text); y != "" {
		year = atoi(y)
	}
	return month, year
}

// labelValue finds a cell matching label and returns its value: the text after
// the label in the same cell up to the next inline label, or the next non-empty
// cell that is not a label.
func labelValue(row []string, label *regexp.Regexp) (string, bool) {
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		loc := findLabel(cell, label)
		if loc == nil {
			continue
		}
		inline := cell[loc[1]:]
		if next := inlineLabel.FindStringIndex(inline); next != nil {
			inline = inline[:next[0]]
		}
		if inline = strings.TrimSpace(inline); inline != "" {
			return inline, true
		}
		for _, next := range row[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" {
				continue
			}
			if isLabel(next) {
				break
			}
			return next, true
		}
		return "", false
	}
	return "", false
}

// findLabel matches label at the start of cell or at any later inline label.
func findLabel(cell string, label *regexp.Regexp) []int {
	if loc := label.FindStringIndex(cell); loc != nil {
		return loc
	}
	for _, m := range inlineLabel.FindAllStringIndex(cell, -1) {
		if m[0] == 0 {
			continue
		}
		if loc := label.FindStringIndex(cell[m[0]:]); loc != nil {
			return []int{loc[0] + m[0], loc[1] + m[0]}
		}
	}
	return nil
}

func isLabel(cell string) bool {
	return employeeLabel.MatchString(cell) ||
		nameLabel.MatchString(cell) ||
		otherLabel.MatchString(cell) ||
		strings.HasSuffix(cell, ":")
}

func isEmployeeRow(row []string) bool {
	for _, cell := range row {
		if employeeLabel.MatchString(strings.TrimSpace(cell)) {
			return true
		}
	}
	return false
}

// findInOutRows looks below an employee label row for its In Time and Out Time
// rows, stopping at the next employee label.
func findInOutRows(grid spreadsheet.Grid, labelRow int) (inRow, outRow int) {
	inRow, outRow = -1, -1
	for k := labelRow + 1; k <= labelRow+monthlyLookahead && k < len(grid); k++ {
		if isEmployeeRow(grid[k]) {
			break
		}
		lead := leadingCell(grid[k])
		switch {
		case inRow < 0 && inTimeLabel.MatchString(lead):
			inRow = k
		case outRow < 0 && outTimeLabel.MatchString(lead):
			outRow = k
		}
	}
	return inRow, outRow
}

func leadingCell(row []string) string {
	for _, cell := range row {
		if v := strings.TrimSpace(cell); v != "" {
			return v
		}
	}
	return ""
}

func joinPunches(in, out string) string {
	var parts []string
	if strings.Contains(in, ":") {
		parts = append(parts, in+"(in)")
	}
	if strings.Contains(out, ":") {
		parts = append(parts, out+"(out)")
	}
	return strings.Join(parts, ",")
}
