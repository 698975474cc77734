package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/utils"
	"github.com/xuri/excelize/v2"
)

// ReadOptions controls how raw files are turned into tables.
type ReadOptions struct {
	// Delimiter for delimited text. If 0, '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
	// Number controls numeric parsing; the zero value is strict.
	Number NumberFormat
}

// Format reads and writes one file type.
type Format interface {
	CanHandle(path string) bool
	// ReadRecords returns all raw rows, header first.
	ReadRecords(path string, opt ReadOptions) ([][]string, error)
	Write(path string, t *Table) error
}

var registry []Format

// Register adds a format. Later registrations take precedence.
func Register(f Format) {
	registry = append([]Format{f}, registry...)
}

func formatFor(path string) Format {
	for _, f := range registry {
		if f.CanHandle(path) {
			return f
		}
	}
	return delimitedFormat{}
}

func init() {
	Register(delimitedFormat{})
	Register(xlsxFormat{})
}

// ReadFile loads a table. Columns whose non-missing cells all parse as
// numbers become numeric; every other column is text.
func ReadFile(path string, opt ReadOptions) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, &NotFoundError{Path: path, Err: errors.New("path is a directory")}
	}
	records, err := formatFor(path).ReadRecords(path, opt)
	if err != nil {
		return nil, err
	}
	return fromRecords(path, records, opt.Number)
}

// WriteFile saves a table, creating parent directories and replacing any
// existing file.
func WriteFile(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return formatFor(path).Write(path, t)
}

func fromRecords(path string, records [][]string, nf NumberFormat) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("no columns to parse")}
	}
	header := records[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	cols := uniqueNames(header)
	ncol := len(cols)
	raw := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) > ncol {
			return nil, &ParseError{Path: path, Line: i + 2, Err: fmt.Errorf("expected %d fields, saw %d", ncol, len(rec))}
		}
		if len(rec) < ncol {
			padded := make([]string, ncol)
			copy(padded, rec)
			rec = padded
		}
		raw = append(raw, rec)
	}

	numeric := make([]bool, ncol)
	for j := range cols {
		numeric[j] = true
		for _, rec := range raw {
			if IsNAToken(rec[j]) {
				continue
			}
			if _, ok := nf.ParseNumber(rec[j]); !ok {
				numeric[j] = false
				break
			}
		}
	}
	rows := make([][]Value, len(raw))
	for i, rec := range raw {
		row := make([]Value, ncol)
		for j, cell := range rec {
			switch {
			case IsNAToken(cell):
				row[j] = Null()
			case numeric[j]:
				f, _ := nf.ParseNumber(cell)
				row[j] = Number(f)
			default:
				row[j] = Text(cell)
			}
		}
		rows[i] = row
	}
	return newUnchecked(cols, rows), nil
}

type delimitedFormat struct{}

func (delimitedFormat) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv" || ext == ".tsv" || ext == ".txt"
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func (delimitedFormat) ReadRecords(path string, opt ReadOptions) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = delim
	var out [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Path: path, Line: pe.Line, Err: pe.Err}
			}
			return nil, &ParseError{Path: path, Err: err}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (delimitedFormat) Write(path string, t *Table) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = sniffDelimiter(path)
	if err := w.Write(t.cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.cols))
	for _, r := range t.rows {
		for j, v := range r {
			rec[j] = v.String()
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

type xlsxFormat struct{}

func (xlsxFormat) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}

func (xlsxFormat) ReadRecords(path string, opt ReadOptions) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &ParseError{Path: path, Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return rows, nil
}

func (xlsxFormat) Write(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(t.cols))
	for j, c := range t.cols {
		header[j] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range t.rows {
		cells := make([]interface{}, len(r))
		for j, v := range r {
			switch {
			case v.IsMissing():
				cells[j] = nil
			case v.Kind() == KindNumber:
				cells[j], _ = v.Float()
			default:
				cells[j] = v.String()
			}
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}
