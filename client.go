// Package pgship composes parameterized SQL from templates and runs it
// over a request/response transport. A query is built from literal
// text with ? placeholders plus embedded values — including nested
// queries, identifiers and structural builders — and finalizes into a
// single positional-parameter statement with parallel text parameters
// and type tags. Result cells come back as text and are decoded into
// native values using the server's declared column types.
package pgship

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgship/pgship/codec"
	"github.com/pgship/pgship/compose"
	"github.com/pgship/pgship/transport"
)

// ErrBatchShape reports a batch submission that is not an ordered list
// of composed queries. Interactive multi-step transactions are not
// supported; a malformed batch is rejected before any network call.
var ErrBatchShape = errors.New("pgship: batch must be a non-empty list of composed queries")

// Undefined is re-exported for callers that need the "no value here"
// sentinel. See WithUndefinedSubstitute.
type Undefined = codec.Undefined

// Client composes and submits statements. Independent queries share
// nothing but the transport.
type Client struct {
	transport transport.Transport
	opts      compose.Options
}

// Option adjusts client behavior.
type Option func(*Client)

// WithUndefinedSubstitute makes composition replace the
// codec.Undefined sentinel with v instead of failing. Without it, an
// undefined value slot is a composition error — it never silently
// becomes NULL.
func WithUndefinedSubstitute(v any) Option {
	return func(c *Client) {
		c.opts.UndefinedTo = v
		c.opts.HasUndefinedTo = true
	}
}

// New creates a client over the given transport.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{transport: t}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query builds a deferred query from template text with ? placeholders.
// Building performs no I/O; nothing happens until the query is run or
// spliced into another query as a fragment.
func (c *Client) Query(text string, values ...any) *compose.Query {
	return compose.QWith(&c.opts, text, values...)
}

// Run finalizes the query, submits it once and projects the result.
// Finalization is idempotent, so running a query that was already
// finalized reuses its cached statement.
func (c *Client) Run(ctx context.Context, q *compose.Query) (*Result, error) {
	stmt, err := q.Statement()
	if err != nil {
		return nil, err
	}
	raw, err := c.transport.Send(ctx, &transport.Request{
		Query:  stmt.Text,
		Params: stmt.Params,
		Types:  stmt.Types,
	})
	if err != nil {
		return nil, err
	}
	return project(raw)
}

// Batch finalizes the queries in order and submits them as one round
// trip. The whole batch either succeeds or fails; there is no partial
// recovery. Results preserve statement order.
func (c *Client) Batch(ctx context.Context, queries []*compose.Query) ([]*Result, error) {
	if len(queries) == 0 {
		return nil, ErrBatchShape
	}
	reqs := make([]*transport.Request, len(queries))
	for i, q := range queries {
		if q == nil {
			return nil, fmt.Errorf("%w: element %d is nil", ErrBatchShape, i)
		}
		stmt, err := q.Statement()
		if err != nil {
			return nil, err
		}
		reqs[i] = &transport.Request{Query: stmt.Text, Params: stmt.Params, Types: stmt.Types}
	}
	raws, err := c.transport.SendBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}
	results := make([]*Result, len(raws))
	for i, raw := range raws {
		if results[i], err = project(raw); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Exec submits already-structured SQL text with pre-serialized text
// parameters, bypassing templating entirely.
func (c *Client) Exec(ctx context.Context, query string, params []string) (*Result, error) {
	cells := make([]pgtype.Text, len(params))
	for i, p := range params {
		cells[i] = pgtype.Text{String: p, Valid: true}
	}
	raw, err := c.transport.Send(ctx, &transport.Request{Query: query, Params: cells})
	if err != nil {
		return nil, err
	}
	return project(raw)
}

// Ident escapes a plain name into an identifier value for splicing
// into a template.
func Ident(name string) compose.Ident { return compose.NewIdent(name) }

// Array tags a sequence as a single array-typed parameter, inferring
// the element type and defaulting to text.
func Array(v any, elem ...uint32) compose.Param { return compose.Array(v, elem...) }

// Values wraps structural input (a record, slice of records or column
// list) for keyword-dependent rendering inside a template.
func Values(input any, cols ...string) *compose.Builder { return compose.Build(input, cols...) }
