package parser

import (
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendix-backend-go/internal/pkg/spreadsheet"
)

// Fixed column positions of the daily in/out duration export.
const (
	colSerial      = 1
	colEmployeeID  = 3
	colName        = 5
	colInDuration  = 7
	colOutDuration = 8
	colPunchLog    = 10

	minDurationReportCols = colPunchLog + 1
)

const attendanceDateAnchor = "attendance date"

// DurationReportExtractor reads the daily "In Out Duration" export: a date
// anchor row ("Attendance Date- 01-Jan-2026") followed by one row per employee,
// keyed by a serial number in an early column.
type DurationReportExtractor struct{}

// Name implements Extractor.
func (DurationReportExtractor) Name() string { return FormatDurationReport }

// durationScan is the fold state carried across rows.
type durationScan struct {
	date    string
	records []Record
}

// TryExtract implements Extractor.
func (e DurationReportExtractor) TryExtract(grid spreadsheet.Grid) ([]Record, bool) {
	var acc durationScan
	for _, row := range grid {
		acc = e.scanRow(acc, row)
	}
	return acc.records, len(acc.records) > 0
}

func (DurationReportExtractor) scanRow(acc durationScan, row []string) durationScan {
	text := spreadsheet.RowText(row)
	if strings.Contains(strings.ToLower(text), attendanceDateAnchor) {
		if t, ok := ExtractDate(text); ok {
			acc.date = FormatDate(t)
		}
		return acc
	}

	if len(row) < minDurationReportCols || !isPositiveSerial(spreadsheet.CellValue(row, colSerial)) {
		return acc
	}

	empRef := spreadsheet.CellValue(row, colEmployeeID)
	if empRef == "" || strings.EqualFold(empRef, "nan") || acc.date == "" {
		return acc
	}

	inDuration := spreadsheet.CellValue(row, colInDuration)
	outDuration := spreadsheet.CellValue(row, colOutDuration)
	punchLog := spreadsheet.CellValue(row, colPunchLog)
	firstIn, lastOut := ResolvePunches(punchLog, inDuration, outDuration)

	acc.records = append(acc.records, Record{
		EmployeeRef:   empRef,
		EmployeeName:  spreadsheet.CellValue(row, colName),
		Date:          acc.date,
		FirstIn:       firstIn,
		LastOut:       lastOut,
		InDuration:    inDuration,
		OutDuration:   outDuration,
		TotalDuration: TotalDuration(firstIn, lastOut, inDuration, outDuration),
		PunchRecords:  punchLog,
		Status:        ClassifyStatus(inDuration),
		SourceFormat:  FormatDurationReport,
	})
	return acc
}

func isPositiveSerial(v string) bool {
	if !decimalNumber.MatchString(v) {
		return false
	}
	n, err := strconv.ParseFloat(v, 64)
	return err == nil && n > 0
}
