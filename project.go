package pgship

import (
	"fmt"

	"github.com/pgship/pgship/codec"
	"github.com/pgship/pgship/transport"
)

// Result is a projected query result: native-typed rows in column
// order, annotated with the command tag and affected-row count.
type Result struct {
	Command string
	Count   int
	Columns []string
	Rows    [][]any
}

// project decodes every cell of a raw result with its column's
// declared type OID. The server is the type authority for results;
// nothing is re-inferred locally.
func project(raw *transport.Result) (*Result, error) {
	cols := make([]string, len(raw.Fields))
	for i, f := range raw.Fields {
		cols[i] = f.Name
	}
	rows := make([][]any, len(raw.Rows))
	for ri, rawRow := range raw.Rows {
		if len(rawRow) != len(raw.Fields) {
			return nil, fmt.Errorf("pgship: row %d has %d cells for %d fields", ri, len(rawRow), len(raw.Fields))
		}
		row := make([]any, len(rawRow))
		for ci, cell := range rawRow {
			v, err := codec.Deserialize(cell, raw.Fields[ci].DataTypeID)
			if err != nil {
				return nil, fmt.Errorf("pgship: row %d column %q: %w", ri, raw.Fields[ci].Name, err)
			}
			row[ci] = v
		}
		rows[ri] = row
	}
	return &Result{
		Command: raw.Command,
		Count:   raw.RowCount,
		Columns: cols,
		Rows:    rows,
	}, nil
}
