package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersSections(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(Document{
		Title: "Comprehensive Analytics Report",
		Sections: []Section{
			{
				Name:    "OVERVIEW METRICS",
				Headers: []string{"Metric", "Value"},
				Rows:    [][]string{{"Total Students", "12"}},
			},
			{
				Name:    "STUDENT PERFORMANCE",
				Headers: []string{"Student", "Composite Score"},
				Rows:    [][]string{{"Ali", "88"}},
			},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	assert.Equal(t, "Comprehensive Analytics Report", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "OVERVIEW METRICS", lines[2])
	assert.Equal(t, "Metric,Value", lines[3])
	assert.Equal(t, "Total Students,12", lines[4])
	assert.Equal(t, "", lines[5])
	assert.Equal(t, "STUDENT PERFORMANCE", lines[6])
}

func TestCSVExporterEscapesCommasAndQuotes(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(Document{
		Sections: []Section{{
			Name:    "STUDENT PERFORMANCE",
			Headers: []string{"Student", "Composite Score"},
			Rows: [][]string{
				{`Yusuf, Jr.`, "73"},
				{`Amina "Mimi"`, "91"},
			},
		}},
	})
	require.NoError(t, err)

	out := string(payload)
	assert.Contains(t, out, `"Yusuf, Jr.",73`)
	assert.Contains(t, out, `"Amina ""Mimi""",91`)
}

func TestCSVExporterRejectsEmptyDocument(t *testing.T) {
	_, err := NewCSVExporter().Render(Document{})
	require.Error(t, err)
}

func TestPDFExporterRendersDocument(t *testing.T) {
	payload, err := NewPDFExporter().Render(Document{
		Title: "Comprehensive Analytics Report",
		Sections: []Section{{
			Name:    "OVERVIEW METRICS",
			Headers: []string{"Metric", "Value"},
			Rows:    [][]string{{"Total Students", "12"}},
		}},
	})
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
