package mapping

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVNames is a second-level mapping table parsed from the MCP csv format
// (`fields.csv` / `methods.csv`). Rows map an intermediate serialized name
// (already owner-unique after the first-level remap) to its readable name,
// so lookups match on the intermediate name regardless of owner.
type CSVNames struct {
	names map[string]string
}

// ParseCSVNames reads a csv table, taking replacement pairs from the two
// named columns. The header row is required.
func ParseCSVNames(r io.Reader, fromColumn, toColumn string) (*CSVNames, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	fromIdx, toIdx := -1, -1
	for i, col := range header {
		switch col {
		case fromColumn:
			fromIdx = i
		case toColumn:
			toIdx = i
		}
	}
	if fromIdx < 0 || toIdx < 0 {
		return nil, fmt.Errorf("csv header missing %q or %q column", fromColumn, toColumn)
	}

	table := &CSVNames{names: make(map[string]string)}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(record) <= fromIdx || len(record) <= toIdx {
			continue
		}
		table.names[record[fromIdx]] = record[toIdx]
	}
	return table, nil
}

// MapFieldName implements FieldMapping.
func (c *CSVNames) MapFieldName(_, name, _ string) (string, bool) {
	mapped, ok := c.names[name]
	return mapped, ok
}

// MapMethodName implements MethodMapping.
func (c *CSVNames) MapMethodName(_, name, _ string) (string, bool) {
	mapped, ok := c.names[name]
	return mapped, ok
}
