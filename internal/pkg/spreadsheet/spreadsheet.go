// Package spreadsheet decodes uploaded report bytes into a rectangular grid of
// trimmed cell strings. Workbooks are tried first; delimited text is the fallback.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxXLSRows bounds legacy workbook reads.
const maxXLSRows = 100000

var (
	ErrEmptyInput  = errors.New("empty input")
	ErrEmptySheet  = errors.New("worksheet is empty")
	ErrNoWorksheet = errors.New("no worksheet found")
	ErrNotText     = errors.New("content is not valid UTF-8 text")
	ErrNoDelimiter = errors.New("could not determine delimiter")
	ErrUndecodable = errors.New("content is neither a spreadsheet nor delimited text")
)

// Grid is a decoded sheet: rows of cell text, all padded to the widest row.
type Grid [][]string

// Cell returns the trimmed cell at (row, col), or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	return CellValue(g[row], col)
}

// CellValue returns the trimmed value at idx, or "" when out of range.
func CellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// RowText joins the non-empty trimmed cells of a row with single spaces.
func RowText(row []string) string {
	parts := make([]string, 0, len(row))
	for _, cell := range row {
		if v := strings.TrimSpace(cell); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Decoder turns raw bytes into a Grid.
type Decoder struct {
	Name   string
	Decode func(data []byte) (Grid, error)
}

// Decoders is the fixed decode chain: XLSX, legacy XLS, then delimited text.
var Decoders = []Decoder{
	{Name: "xlsx", Decode: decodeXLSX},
	{Name: "xls", Decode: decodeXLS},
	{Name: "delimited", Decode: decodeDelimited},
}

// Decode runs the decode chain and returns the first grid that decodes.
func Decode(data []byte) (Grid, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyInput
	}

	var errs []error
	for _, d := range Decoders {
		grid, err := d.Decode(data)
		if err == nil {
			return grid, d.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", d.Name, err))
	}

	return nil, "", fmt.Errorf("%w: %w", ErrUndecodable, errors.Join(errs...))
}

func decodeXLSX(data []byte) (Grid, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoWorksheet
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return trimGrid(rows), nil
}

// xlsWorkbook is the part of *xls.WorkBook the decoder reads.
type xlsWorkbook interface {
	NumSheets() int
	GetSheet(num int) *xls.WorkSheet
	ReadAllCells(max int) [][]string
}

func decodeXLS(data []byte) (grid Grid, err error) {
	// The BIFF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, fmt.Errorf("malformed xls: %v", r)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	return firstSheetRows(workbook)
}

// firstSheetRows returns the rows of the first worksheet only. ReadAllCells
// concatenates sheets in order, so capping it at the first sheet's row count
// stops before the second sheet begins.
func firstSheetRows(workbook xlsWorkbook) (Grid, error) {
	if workbook.NumSheets() == 0 {
		return nil, ErrNoWorksheet
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoWorksheet
	}
	// ReadAllCells skips sheets whose MaxRow is 0, so a one-row first sheet
	// cannot be read in isolation; no report fits in one row anyway.
	if sheet.MaxRow == 0 {
		return nil, ErrEmptySheet
	}

	limit := int(sheet.MaxRow) + 1
	if limit > maxXLSRows {
		limit = maxXLSRows
	}
	rows := workbook.ReadAllCells(limit)
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return trimGrid(rows), nil
}

// trimGrid trims every cell and pads rows to the widest one. Workbook readers
// drop trailing empty cells, so positional column checks need the padding.
func trimGrid(rows [][]string) Grid {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	grid := make(Grid, len(rows))
	for i, row := range rows {
		out := make([]string, width)
		for j, cell := range row {
			out[j] = strings.TrimSpace(cell)
		}
		grid[i] = out
	}
	return grid
}
