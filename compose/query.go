package compose

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgship/pgship/codec"
)

// ErrUsage reports a template invoked without the literal-segments
// contract: the number of placeholders and the number of values
// disagree. It is distinct from composition and transport errors so
// misuse is diagnosable without a round trip.
var ErrUsage = errors.New("compose: placeholder count does not match value count")

// ErrFragmentSlice reports a spliced slice that mixes fragments with
// other values.
var ErrFragmentSlice = errors.New("compose: fragment slice must contain only queries")

// Options adjusts composition behavior for every query built against
// the same client.
type Options struct {
	// UndefinedTo substitutes for the codec.Undefined sentinel. With
	// HasUndefinedTo unset, composing an Undefined value fails.
	UndefinedTo    any
	HasUndefinedTo bool
}

// Statement is a finalized query: positional-parameter text plus the
// parallel parameter and type-tag lists. Params[n-1] backs placeholder
// $n, and an invalid pgtype.Text is a NULL parameter.
type Statement struct {
	Text   string
	Params []pgtype.Text
	Types  []uint32
}

// Query is a not-yet-finalized template: literal segments interleaved
// with embedded values. Building one does no work; composition runs on
// the first call to Statement and the result is cached, so finalizing
// twice can neither renumber nor duplicate parameters.
type Query struct {
	segments []string
	values   []any
	opts     *Options

	stmt     *Statement
	err      error
	consumed bool
}

// Q builds a query from text with ? placeholders, one per value. A
// doubled ?? escapes a literal question mark.
func Q(text string, values ...any) *Query {
	return QWith(nil, text, values...)
}

// QWith is Q with explicit composition options.
func QWith(opts *Options, text string, values ...any) *Query {
	segments := splitTemplate(text)
	q := &Query{segments: segments, values: values, opts: opts}
	if len(segments) != len(values)+1 {
		q.err = fmt.Errorf("%w: %d placeholders, %d values", ErrUsage, len(segments)-1, len(values))
	}
	return q
}

// FromParts builds a query from already-split literal segments. There
// must be exactly one more segment than values.
func FromParts(segments []string, values ...any) *Query {
	q := &Query{segments: segments, values: values}
	if len(segments) != len(values)+1 {
		q.err = fmt.Errorf("%w: %d segments, %d values", ErrUsage, len(segments), len(values))
	}
	return q
}

// Statement finalizes the query. It is idempotent: the first call
// composes and caches, later calls return the same statement.
func (q *Query) Statement() (*Statement, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.stmt != nil {
		return q.stmt, nil
	}
	st := &composeState{opts: q.opts}
	if err := st.compose(q); err != nil {
		q.err = err
		return nil, err
	}
	q.stmt = &Statement{Text: st.text.String(), Params: st.params, Types: st.types}
	return q.stmt, nil
}

// Consumed reports whether the query was spliced into an enclosing
// query as a fragment.
func (q *Query) Consumed() bool { return q.consumed }

// composeState accumulates one statement across nesting depth. Nested
// fragments compose against the same accumulators, which is what makes
// parameter numbering global, depth-first and left-to-right.
type composeState struct {
	text   strings.Builder
	params []pgtype.Text
	types  []uint32
	opts   *Options
}

func (st *composeState) compose(q *Query) error {
	if q.err != nil {
		return q.err
	}
	st.text.WriteString(q.segments[0])
	for i, v := range q.values {
		if err := st.resolve(v); err != nil {
			return err
		}
		st.text.WriteString(q.segments[i+1])
	}
	return nil
}

func (st *composeState) resolve(v any) error {
	switch t := v.(type) {
	case *Builder:
		return t.render(st)
	case *Query:
		t.consumed = true
		return st.compose(t)
	case Ident:
		st.text.WriteString(t.text)
		return nil
	case Param:
		return st.appendParam(t.Value, t.OID)
	}
	if fragments, ok, err := fragmentSlice(v); err != nil {
		return err
	} else if ok {
		for i, f := range fragments {
			if i > 0 {
				st.text.WriteByte(' ')
			}
			f.consumed = true
			if err := st.compose(f); err != nil {
				return err
			}
		}
		return nil
	}
	return st.appendParam(v, codec.UntypedOID)
}

// appendParam serializes one value, assigns it the next slot and writes
// its placeholder.
func (st *composeState) appendParam(v any, oid uint32) error {
	if codec.IsUndefined(v) {
		if st.opts == nil || !st.opts.HasUndefinedTo {
			return fmt.Errorf("compose: undefined value in parameter %d: %w",
				len(st.params)+1, codec.ErrUnrepresentable)
		}
		v = st.opts.UndefinedTo
	}
	if oid == codec.UntypedOID {
		oid = codec.Infer(v)
	}
	var cell pgtype.Text
	if v != nil {
		s, err := codec.Serialize(v)
		if err != nil {
			return err
		}
		cell = pgtype.Text{String: s, Valid: true}
	}
	st.params = append(st.params, cell)
	st.types = append(st.types, oid)
	st.text.WriteByte('$')
	st.text.WriteString(strconv.Itoa(len(st.params)))
	return nil
}

// fragmentSlice detects a slice used to splice a list of fragments,
// such as conditionally included clauses. The first element decides:
// if it is a query, every element must be.
func fragmentSlice(v any) ([]*Query, bool, error) {
	switch t := v.(type) {
	case []*Query:
		return t, true, nil
	case []any:
		if len(t) == 0 {
			return nil, false, nil
		}
		if _, ok := t[0].(*Query); !ok {
			return nil, false, nil
		}
		out := make([]*Query, len(t))
		for i, e := range t {
			q, ok := e.(*Query)
			if !ok {
				return nil, false, fmt.Errorf("%w: element %d is %T", ErrFragmentSlice, i, e)
			}
			out[i] = q
		}
		return out, true, nil
	}
	return nil, false, nil
}

// splitTemplate splits text on ? placeholders, honoring ?? as an
// escaped literal question mark.
func splitTemplate(text string) []string {
	var segments []string
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '?' {
			sb.WriteByte(c)
			continue
		}
		if i+1 < len(text) && text[i+1] == '?' {
			sb.WriteByte('?')
			i++
			continue
		}
		segments = append(segments, sb.String())
		sb.Reset()
	}
	segments = append(segments, sb.String())
	return segments
}
