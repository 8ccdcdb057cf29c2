package features

import (
	"encoding/csv"
	"io"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// CSVWriter serializes OutputRows under a fixed K-slot header.
type CSVWriter struct {
	w       *csv.Writer
	counter *countingWriter
	k       int
	rows    int
}

// NewCSVWriter returns a writer for k neighbor slots.
func NewCSVWriter(w io.Writer, k int) *CSVWriter {
	cw := &countingWriter{w: w}
	return &CSVWriter{w: csv.NewWriter(cw), counter: cw, k: k}
}

// WriteHeader writes the column names.
func (c *CSVWriter) WriteHeader() error {
	if err := c.w.Write(Header(c.k)); err != nil {
		return outputErr(err)
	}
	return nil
}

// Write appends one row.
func (c *CSVWriter) Write(row OutputRow) error {
	if err := c.w.Write(row.Record(c.k)); err != nil {
		return outputErr(err)
	}
	c.rows++
	return nil
}

// Flush writes buffered data to the underlying writer.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return outputErr(err)
	}
	return nil
}

// Rows returns the number of data rows written.
func (c *CSVWriter) Rows() int { return c.rows }

// Bytes returns the number of bytes flushed so far.
func (c *CSVWriter) Bytes() int64 { return c.counter.n }

// WriteCSV writes the header and rows in order and flushes.
func WriteCSV(w io.Writer, k int, rows []OutputRow) (int64, error) {
	cw := NewCSVWriter(w, k)
	if err := cw.WriteHeader(); err != nil {
		return 0, err
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return cw.Bytes(), err
		}
	}
	if err := cw.Flush(); err != nil {
		return cw.Bytes(), err
	}
	return cw.Bytes(), nil
}

func outputErr(err error) error {
	return errors.Wrap(err, errors.ErrCodeOutputWriteFailed, "failed to write feature output")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

//Personal.AI order the ending
