// Package transport carries prepared statements to a SQL-over-HTTP
// endpoint and returns raw tabular results. It knows nothing about
// templates or native types: parameters arrive as text, cells come
// back as text, and the codec on either side does the rest.
package transport

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// Request is one statement ready for submission. Params are wire text;
// an invalid pgtype.Text marshals as JSON null and means a NULL
// parameter. Types carries a per-parameter OID hint where one was
// inferable.
type Request struct {
	Query  string        `json:"query"`
	Params []pgtype.Text `json:"params"`
	Types  []uint32      `json:"types,omitempty"`
}

// Field describes one result column.
type Field struct {
	Name       string `json:"name"`
	DataTypeID uint32 `json:"typeDataId"`
}

// Result is the raw tabular response for one statement. Cells are text
// or null, typed only by the field descriptions.
type Result struct {
	Command  string          `json:"command"`
	RowCount int             `json:"rowCount"`
	Rows     [][]pgtype.Text `json:"rows"`
	Fields   []Field         `json:"fields"`
}

// batch envelopes for multi-statement submission.
type batchRequest struct {
	Queries []*Request `json:"queries"`
}

type batchResult struct {
	Results []*Result `json:"results"`
}

// Transport submits statements and returns raw results. A batch is one
// round trip; its results come back in statement order.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Result, error)
	SendBatch(ctx context.Context, reqs []*Request) ([]*Result, error)
}

// Error is a non-success response. It carries the raw response body so
// nothing the server said is lost; the caller decides what to do, and
// the transport never retries.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: server returned %d: %s", e.Status, e.Body)
}
