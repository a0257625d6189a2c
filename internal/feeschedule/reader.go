// Package feeschedule loads the static fee-schedule Parquet table and
// answers per-line pricing lookups for the baseline resolver.
package feeschedule

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/billcheck/internal/model"
)

// Reader streams FeeScheduleRow records out of a Parquet file.
type Reader struct {
	file   *os.File
	reader *parquet.GenericReader[model.FeeScheduleRow]
}

// Open opens a Parquet file and returns a streaming Reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fee schedule: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat fee schedule: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	r := parquet.NewGenericReader[model.FeeScheduleRow](pf)
	return &Reader{file: f, reader: r}, nil
}

// NumRows returns the total number of rows in the file.
func (r *Reader) NumRows() int64 {
	return r.reader.NumRows()
}

// Read reads up to len(rows) records. Returns io.EOF when done.
func (r *Reader) Read(rows []model.FeeScheduleRow) (int, error) {
	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read fee schedule rows: %w", err)
	}
	return n, err
}

// Schema returns the file's Parquet schema.
func (r *Reader) Schema() *parquet.Schema {
	return r.reader.Schema()
}

// Close releases all resources.
func (r *Reader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
