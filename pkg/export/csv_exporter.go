package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := writeRows(writer, data, nil); err != nil {
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSections flattens sections into one CSV, prefixing each row with a "section" column.
func (e *CSVExporter) RenderSections(sections []Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("csv requires at least one section")
	}
	headers := sections[0].Data.Headers
	if len(headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(append([]string{"section"}, headers...)); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, section := range sections {
		title := section.Title
		if err := writeRows(writer, Dataset{Headers: headers, Rows: section.Data.Rows}, &title); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(writer *csv.Writer, data Dataset, prefix *string) error {
	for _, row := range data.Rows {
		record := make([]string, 0, len(data.Headers)+1)
		if prefix != nil {
			record = append(record, *prefix)
		}
		for _, header := range data.Headers {
			record = append(record, row[header])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return nil
}
