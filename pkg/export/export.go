package export

import (
	"fmt"
	"strings"
)

// Format names a downloadable rendering of a Dataset.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
	FormatICS Format = "ics"
)

// ParseFormat normalises a user supplied format; empty selects CSV.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatPDF, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatICS:
		return "text/calendar; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename builds "<base>.<ext>".
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// Dataset defines tabular export content.
type Dataset struct {
	Title    string
	Subtitle string
	Headers  []string
	Rows     []map[string]string
}
