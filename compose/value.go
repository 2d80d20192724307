package compose

import (
	"reflect"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgship/pgship/codec"
)

// A value embedded in a template is one of a closed set of variants:
// an explicit Param, a pre-escaped Ident, a nested *Query fragment, a
// deferred *Builder, or a plain value that becomes an inferred
// parameter. The composer resolves them with an exhaustive switch in
// resolve().

// Param tags a native value with an explicit wire type, overriding
// inference. Elems carries per-element OIDs for sequences whose element
// type is itself ambiguous.
type Param struct {
	Value any
	OID   uint32
	Elems []uint32
}

// Ident is a pre-escaped SQL identifier. It substitutes verbatim into
// the statement text and never occupies a parameter slot.
type Ident struct {
	text string
}

// NewIdent escapes a plain name into an identifier.
func NewIdent(name string) Ident {
	return Ident{text: EscapeIdent(name)}
}

// String returns the escaped identifier text.
func (id Ident) String() string { return id.text }

// Builder holds structural input (a record, slice of records, or column
// list) whose rendering is decided by the SQL keyword governing its
// position. Cols fixes the column order when the input alone cannot.
type Builder struct {
	input any
	cols  []string
}

// Build wraps structural input for keyword-dependent rendering.
func Build(input any, cols ...string) *Builder {
	return &Builder{input: input, cols: cols}
}

// Array tags a native sequence as a single array-typed parameter. The
// element type is taken from elem if given, otherwise inferred from the
// first element, defaulting to text.
func Array(v any, elem ...uint32) Param {
	elemOID := uint32(pgtype.TextOID)
	switch {
	case len(elem) > 0 && elem[0] != codec.UntypedOID:
		elemOID = elem[0]
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice && rv.Len() > 0 {
			if inferred := codec.Infer(rv.Index(0).Interface()); inferred != codec.UntypedOID {
				elemOID = inferred
			}
		}
	}
	oid := codec.ArrayOID(elemOID)
	if oid == codec.UntypedOID {
		oid = pgtype.TextArrayOID
	}
	return Param{Value: v, OID: oid, Elems: []uint32{elemOID}}
}
