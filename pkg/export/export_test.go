package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Dataset {
	return Dataset{
		Title:    "Calendar",
		Subtitle: "2025-05-06 to 2025-05-07 (Europe/Istanbul)",
		Headers:  []string{"date", "hour", "title"},
		Rows: []map[string]string{
			{"date": "2025-05-06", "hour": "09:00", "title": "Standup, daily"},
			{"date": "2025-05-06", "hour": "10:00"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.Equal(t, "calendar.pdf", f.Filename("calendar"))

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sample())
	require.NoError(t, err)
	assert.Equal(t, "date,hour,title\n2025-05-06,09:00,\"Standup, daily\"\n2025-05-06,10:00,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sample()
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"date": "2025-05-07", "hour": "11:00", "title": "Row"})
	}
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}
