package survey

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ParseCSV reads a respondent data file from disk.
func ParseCSV(path string, opts Options) (*Survey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "survey: open %s", path)
	}
	defer f.Close()

	s, err := ReadCSV(f, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "survey: parse %s", path)
	}

	zap.L().Info("survey: parsed data file",
		zap.String("path", path),
		zap.Int("questions", len(s.Questions)),
		zap.Int("groups", len(s.GroupCols)),
		zap.Int("respondents", len(s.Respondents)),
	)
	return s, nil
}

// ReadCSV parses respondent data from a reader.
func ReadCSV(r io.Reader, opts Options) (*Survey, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.cell()
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // row width is validated against the header

	headerRow, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("survey: data file is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "survey: read header")
	}

	h, err := parseHeader(headerRow)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "survey: read row")
		}
		rows = append(rows, row)
	}

	return h.build(rows, opts)
}
