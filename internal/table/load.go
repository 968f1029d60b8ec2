package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// LoadCSV reads a delimited-text statement into a table. headerOffset
// is the 0-based index of the header line; rows above it become the
// preamble. encodingName selects the byte decoding: "" or "utf-8" for
// plain UTF-8, "windows-1255" for legacy Hebrew bank exports.
func LoadCSV(path string, headerOffset int, encodingName string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	r, err := decodingReader(f, encodingName)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("failed to read CSV content: %w", err)}
	}

	return fromRecords(path, records, headerOffset)
}

// LoadXLSX reads the first sheet of an xlsx workbook into a table,
// honoring the same header-offset convention as LoadCSV.
func LoadXLSX(path string, headerOffset int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)}
	}

	return fromRecords(path, rows, headerOffset)
}

// fromRecords builds a table from raw rows, splitting preamble, header
// and data at the header offset.
func fromRecords(path string, records [][]string, headerOffset int) (*Table, error) {
	if headerOffset >= len(records) {
		return nil, &LoadError{
			Path: path,
			Err:  fmt.Errorf("header offset %d beyond end of file (%d rows)", headerOffset, len(records)),
		}
	}

	headers := records[headerOffset]
	if len(headers) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("header row %d is empty", headerOffset)}
	}

	t := New(headers, records[headerOffset+1:])
	if headerOffset > 0 {
		t.SetPreamble(records[:headerOffset])
	}
	return t, nil
}

// decodingReader wraps r with a charset decoder when the descriptor
// declares a legacy encoding.
func decodingReader(r io.Reader, encodingName string) (io.Reader, error) {
	switch encodingName {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1255":
		return transform.NewReader(r, charmap.Windows1255.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encodingName)
	}
}
