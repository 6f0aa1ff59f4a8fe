package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/orneryd/recipeconv/pkg/convert"
)

// ReadRatioTable reads a headerless unit-ratio table.
//
// Blank lines are skipped. Every other record must have exactly two cells.
// Cells are trimmed; quantities are not parsed here (the graph builder does
// that so it can report the unit that failed).
func ReadRatioTable(r io.Reader) ([]RatioRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []RatioRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ratio table: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) != 2 {
			return nil, rowError(line, "want 2 cells, got %d", len(record))
		}
		rows = append(rows, RatioRow{
			Left:  strings.TrimSpace(record[0]),
			Right: strings.TrimSpace(record[1]),
		})
	}
	return rows, nil
}

// LoadRatioTable reads a unit-ratio table from a file.
func LoadRatioTable(path string) ([]RatioRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ratio table: %w", err)
	}
	defer f.Close()
	return ReadRatioTable(f)
}

// DefaultRatioTable returns the embedded unit-ratio table.
func DefaultRatioTable() ([]RatioRow, error) {
	f, err := defaults.Open(defaultRatioFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRatioTable(f)
}

// ReadDensityTable reads a density table with a header row.
//
// The header must start with an "ingredient" column followed by the cup,
// tablespoon and teaspoon columns, in that order. Names are matched
// case-insensitively. Ingredient names are lower-cased because the
// converter lower-cases lines before matching. Empty cells stay nil.
func ReadDensityTable(r io.Reader) ([]DensityRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading density header: %w", err)
	}
	if err := checkDensityHeader(header); err != nil {
		return nil, err
	}

	var rows []DensityRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading density table: %w", err)
		}
		line, _ := reader.FieldPos(0)

		row := DensityRow{Ingredient: strings.ToLower(strings.TrimSpace(record[0]))}
		if row.Ingredient == "" {
			return nil, rowError(line, "empty ingredient")
		}
		targets := []**float64{&row.Cup, &row.Tablespoon, &row.Teaspoon}
		for i, target := range targets {
			cell := strings.TrimSpace(record[i+1])
			if cell == "" {
				continue
			}
			v, ok := convert.ParseDecimal(cell)
			if !ok {
				return nil, rowError(line, "%s %q is not a number", Columns[i], cell)
			}
			*target = &v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadDensityTable reads a density table from a file.
func LoadDensityTable(path string) ([]DensityRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening density table: %w", err)
	}
	defer f.Close()
	return ReadDensityTable(f)
}

// DefaultDensityTable returns the embedded density table.
func DefaultDensityTable() ([]DensityRow, error) {
	f, err := defaults.Open(defaultDensityFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDensityTable(f)
}

func checkDensityHeader(header []string) error {
	want := append([]string{"ingredient"}, Columns...)
	if len(header) != len(want) {
		return fmt.Errorf("%w: want %s, got %s", ErrMissingHeader,
			strings.Join(want, ","), strings.Join(header, ","))
	}
	for i, name := range want {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrMissingHeader, i+1, header[i], name)
		}
	}
	return nil
}
