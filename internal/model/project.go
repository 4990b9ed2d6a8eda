package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Project is one matchmaking run registered in the store: a data file plus
// the metadata needed to re-read and re-match it.
type Project struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CSVPath        string    `json:"csv_path"`
	CSVSHA256      string    `json:"csv_sha256"`
	CSVSize        int64     `json:"csv_size"`
	Delimiter      string    `json:"delimiter"`
	MultiDelimiter string    `json:"multi_delimiter"`
	CreatedAt      time.Time `json:"created_at"`
}

// ResultFileType selects which result document to render for a respondent.
type ResultFileType string

const (
	ResultFileEmail ResultFileType = "email"
	ResultFilePDF   ResultFileType = "pdf"
)

// ParseResultFileType maps a CLI value to a ResultFileType.
func ParseResultFileType(value string) (ResultFileType, error) {
	switch ResultFileType(value) {
	case ResultFileEmail:
		return ResultFileEmail, nil
	case ResultFilePDF:
		return ResultFilePDF, nil
	}
	return "", eris.Errorf("model: invalid result file type %q", value)
}

// Extension returns the file extension for the rendered document. The pdf
// variant is the printable page handed to an external PDF engine, so it is
// still HTML on disk.
func (t ResultFileType) Extension() string {
	if t == ResultFilePDF {
		return "pdf.html"
	}
	return "html"
}
