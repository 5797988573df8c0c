package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"pcc-tenders/models"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\uFEFF"

// CSVWriter writes display tables as UTF-8 CSV with a byte-order mark.
// It is safe for concurrent use.
type CSVWriter struct {
	mu       sync.Mutex
	closer   io.Closer
	writer   *csv.Writer
	rawLinks bool
	header   bool
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically. With rawLinks set,
// link cells are written as bare URLs instead of anchors.
func NewCSVWriter(path string, rawLinks bool) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w, err := newCSVWriter(f, rawLinks)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

func newCSVWriter(out io.Writer, rawLinks bool) (*CSVWriter, error) {
	if _, err := io.WriteString(out, utf8BOM); err != nil {
		return nil, fmt.Errorf("csv: write BOM: %w", err)
	}
	return &CSVWriter{writer: csv.NewWriter(out), rawLinks: rawLinks}, nil
}

// WriteTable appends the records of t. The header is written once, before
// the first table.
func (c *CSVWriter) WriteTable(t *models.DisplayTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.header {
		if err := c.writer.Write(t.Header()); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
		c.header = true
	}

	for _, rec := range t.Records {
		row := make([]string, 0, len(rec.Cells)+2)
		row = append(row, rec.Agency)
		for _, cell := range rec.Cells {
			row = append(row, c.cellValue(cell))
		}
		row = append(row, rec.Message)

		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSVWriter) cellValue(cell models.Cell) string {
	v := cell.String()
	if c.rawLinks {
		if href, ok := models.LinkHref(v); ok {
			return href
		}
	}
	return v
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}
