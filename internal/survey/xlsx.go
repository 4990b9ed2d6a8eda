package survey

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// ParseXLSX reads a respondent data file from the first sheet of an XLSX
// workbook. The sheet follows the same header schema as the CSV format; the
// multi-option delimiter still applies inside cells.
func ParseXLSX(path string, opts Options) (*Survey, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "survey: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("survey: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("survey: %s first sheet is empty", path)
	}

	h, err := parseHeader(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}

	s, err := h.build(rows, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "survey: parse %s", path)
	}

	zap.L().Info("survey: parsed xlsx data file",
		zap.String("path", path),
		zap.String("sheet", sheet.Name),
		zap.Int("respondents", len(s.Respondents)),
	)
	return s, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

// ParseFile dispatches on the file extension: .xlsx workbooks go through the
// XLSX reader, everything else is treated as CSV.
func ParseFile(path string, opts Options) (*Survey, error) {
	if hasXLSXExt(path) {
		return ParseXLSX(path, opts)
	}
	return ParseCSV(path, opts)
}

func hasXLSXExt(path string) bool {
	const ext = ".xlsx"
	return len(path) >= len(ext) && path[len(path)-len(ext):] == ext
}
