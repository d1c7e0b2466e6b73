package parser

import (
	"regexp"
	"strings"

	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/spreadsheet"
)

type rosterField int

const (
	fieldEmployeeID rosterField = iota
	fieldEmail
	fieldDate
	fieldFirstIn
	fieldLastOut
	fieldInDuration
	fieldOutDuration
	fieldPunchRecords
	fieldStatus
	fieldName
)

var rosterHeaders = map[string]rosterField{
	"emp id":          fieldEmployeeID,
	"employee id":     fieldEmployeeID,
	"employee code":   fieldEmployeeID,
	"emp code":        fieldEmployeeID,
	"emp no":          fieldEmployeeID,
	"email":           fieldEmail,
	"e mail":          fieldEmail,
	"mail id":         fieldEmail,
	"date":            fieldDate,
	"attendance date": fieldDate,
	"first in":        fieldFirstIn,
	"in time":         fieldFirstIn,
	"last out":        fieldLastOut,
	"out time":        fieldLastOut,
	"in duration":     fieldInDuration,
	"out duration":    fieldOutDuration,
	"punch records":   fieldPunchRecords,
	"status":          fieldStatus,
	"attendance":      fieldStatus,
	"name":            fieldName,
	"full name":       fieldName,
	"employee name":   fieldName,
}

var headerNoise = regexp.MustCompile(`[\s_\-.]+`)

// normalizeHeader lower-cases a header and collapses separators, so "Emp_ID",
// "emp-id" and "Emp ID" compare equal.
func normalizeHeader(h string) string {
	return strings.TrimSpace(headerNoise.ReplaceAllString(strings.ToLower(h), " "))
}

// RosterExtractor reads HR master or roster exports: a header row naming an
// employee identifier and email, with one row per employee-day beneath it.
// Master lists without a date column yield nothing.
type RosterExtractor struct {
	ScanRows int
}

// Name implements Extractor.
func (RosterExtractor) Name() string { return FormatRoster }

// TryExtract implements Extractor.
func (e RosterExtractor) TryExtract(grid spreadsheet.Grid) ([]Record, bool) {
	header, cols, ok := e.findHeader(grid)
	if !ok {
		return nil, false
	}
	if _, ok := cols[fieldDate]; !ok {
		return nil, false
	}

	cell := func(row []string, f rosterField) string {
		idx, ok := cols[f]
		if !ok {
			return ""
		}
		return spreadsheet.CellValue(row, idx)
	}

	var records []Record
	for _, row := range grid[header+1:] {
		ref := cell(row, fieldEmployeeID)
		if ref == "" || strings.EqualFold(ref, "nan") {
			continue
		}
		date, ok := ParseDate(cell(row, fieldDate))
		if !ok {
			continue
		}

		inDur, outDur := cell(row, fieldInDuration), cell(row, fieldOutDuration)
		firstIn := clockOrNoValue(cell(row, fieldFirstIn))
		lastOut := clockOrNoValue(cell(row, fieldLastOut))
		punches := cell(row, fieldPunchRecords)
		if firstIn == NoValue && lastOut == NoValue && punches != "" {
			firstIn, lastOut = ParsePunchLog(punches)
		}

		records = append(records, Record{
			EmployeeRef:   ref,
			EmployeeName:  cell(row, fieldName),
			Date:          FormatDate(date),
			FirstIn:       firstIn,
			LastOut:       lastOut,
			InDuration:    inDur,
			OutDuration:   outDur,
			TotalDuration: TotalDuration(firstIn, lastOut, inDur, outDur),
			PunchRecords:  punches,
			Status:        rosterStatus(cell(row, fieldStatus), inDur, firstIn),
			SourceFormat:  FormatRoster,
		})
	}

	return records, len(records) > 0
}

func (e RosterExtractor) findHeader(grid spreadsheet.Grid) (int, map[rosterField]int, bool) {
	limit := e.ScanRows
	if limit <= 0 {
		limit = DefaultScanRows
	}
	for r := 0; r < len(grid) && r < limit; r++ {
		cols := make(map[rosterField]int)
		for c, h := range grid[r] {
			f, ok := rosterHeaders[normalizeHeader(h)]
			if !ok {
				continue
			}
			if _, seen := cols[f]; !seen {
				cols[f] = c
			}
		}
		_, hasID := cols[fieldEmployeeID]
		_, hasEmail := cols[fieldEmail]
		if hasID && hasEmail {
			return r, cols, true
		}
	}
	return 0, nil, false
}

// rosterStatus prefers an explicit status column, then the absence rule on the
// in-duration, then on the first-in cell.
func rosterStatus(explicit, inDuration, firstIn string) Status {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "absent", "a":
		return StatusAbsent
	case "present", "p":
		return StatusPresent
	}
	if inDuration != "" {
		return ClassifyStatus(inDuration)
	}
	if firstIn == NoValue {
		return StatusAbsent
	}
	return ClassifyStatus(firstIn)
}
