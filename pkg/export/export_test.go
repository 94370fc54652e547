package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Drowsiness Report dev-1",
		Summary: []SummaryRow{
			{Label: "Safety Score", Value: "90 (excellent)"},
			{Label: "Total Yawns", Value: "2"},
		},
		Headers: []string{"timestamp", "ear", "mouth_distance", "yawn_events", "drowsiness_events", "critical_alerts", "status"},
		Rows: [][]string{
			{"2026-03-14T09:00:00Z", "0.31", "10.20", "1", "0", "0", "NORMAL"},
			{"2026-03-14T10:00:00Z", "0.18", "22.40", "2", "1", "0", "DROWSINESS"},
		},
		TotalRows: 2,
	}
}

func TestCSVRoundTrip(t *testing.T) {
	data := sampleDataset()
	payload, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, data.Headers, records[0])
	require.Equal(t, data.Rows[0], records[1])
	require.Equal(t, data.Rows[1], records[2])
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRenderWithTruncationNotice(t *testing.T) {
	data := sampleDataset()
	data.TotalRows = 500

	payload, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestXLSXRenderReadableWorkbook(t *testing.T) {
	data := sampleDataset()
	payload, err := NewXLSXExporter().Render(data)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	// title + blank + 2 summary rows + blank + header + 2 data rows
	require.GreaterOrEqual(t, len(rows), 7)
	last := rows[len(rows)-1]
	require.Equal(t, "DROWSINESS", last[len(last)-1])
}
