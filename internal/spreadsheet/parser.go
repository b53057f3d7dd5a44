// Package spreadsheet turns an uploaded reservations workbook into roster
// candidates.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/roster"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrNoRows            = errors.New("spreadsheet has no guest rows")
	ErrMissingColumns    = errors.New("spreadsheet is missing required columns")
)

var acceptedExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// CheckExtension rejects file names excelize cannot open.
func CheckExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(acceptedExtensions, ext) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// ParseFile opens path and parses its first sheet.
func ParseFile(path string) ([]entities.Candidate, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the first sheet of a workbook.
func Parse(r io.Reader) ([]entities.Candidate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %q: %w", sheets[0], err)
	}
	return ParseRows(rows)
}

type columns struct {
	code, name, room int
}

// ParseRows maps a header row plus data rows to candidates.
//
// Columns are found by header text, ignoring case and accents: the code
// column mentions both "codigo" and "reserva", the name column "cliente" or
// "nombre", the room column "habitacion" or "hab". The first matching
// header wins. Rows without a code or a name are dropped.
func ParseRows(rows [][]string) ([]entities.Candidate, error) {
	if len(rows) <= 1 {
		return nil, ErrNoRows
	}

	cols, err := findColumns(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]entities.Candidate, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		code := cell(row, cols.code)
		name := TitleCase(cell(row, cols.name))
		if code == "" || name == "" {
			dropped++
			continue
		}
		out = append(out, entities.Candidate{
			ReservationCode: code,
			Name:            name,
			Room:            cell(row, cols.room),
		})
	}

	if dropped > 0 {
		logging.Debug("Spreadsheet rows dropped", "dropped", dropped, "kept", len(out))
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

func findColumns(header []string) (columns, error) {
	cols := columns{code: -1, name: -1, room: -1}
	for i, h := range header {
		n := roster.NormalizeForSearch(strings.TrimSpace(h))
		switch {
		case strings.Contains(n, "codigo") && strings.Contains(n, "reserva"):
			if cols.code < 0 {
				cols.code = i
			}
		case strings.Contains(n, "cliente") || strings.Contains(n, "nombre"):
			if cols.name < 0 {
				cols.name = i
			}
		case strings.Contains(n, "habitacion") || strings.Contains(n, "hab"):
			if cols.room < 0 {
				cols.room = i
			}
		}
	}

	var missing []string
	if cols.code < 0 {
		missing = append(missing, "codigo reserva")
	}
	if cols.name < 0 {
		missing = append(missing, "cliente/nombre")
	}
	if cols.room < 0 {
		missing = append(missing, "habitacion")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// TitleCase lowercases s, capitalizes each word and collapses whitespace.
func TitleCase(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.Spanish).String(strings.Join(words, " "))
}
