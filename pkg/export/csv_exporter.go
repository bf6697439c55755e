package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Section is one titled table within an export document.
type Section struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Document defines a multi-section export layout with a leading title.
type Document struct {
	Title    string
	Sections []Section
}

// CSVExporter renders Documents into CSV bytes. All values go through
// encoding/csv, so embedded commas and quotes are escaped per RFC 4180.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the document: title line, then each
// section as a name line, a header row and its data rows, with a blank line
// separating the title and every section.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("csv requires at least one section")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	separate := false
	if doc.Title != "" {
		if err := writer.Write([]string{doc.Title}); err != nil {
			return nil, fmt.Errorf("write csv title: %w", err)
		}
		separate = true
	}

	for _, section := range doc.Sections {
		if len(section.Headers) == 0 {
			return nil, fmt.Errorf("csv section %q requires headers", section.Name)
		}
		if separate {
			writer.Flush()
			buf.WriteByte('\n')
		}
		separate = true
		if section.Name != "" {
			if err := writer.Write([]string{section.Name}); err != nil {
				return nil, fmt.Errorf("write csv section name: %w", err)
			}
		}
		if err := writer.Write(section.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range section.Rows {
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
