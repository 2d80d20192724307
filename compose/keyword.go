package compose

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgship/pgship/codec"
)

// ErrBuilderInput reports structural input a keyword renderer cannot
// interpret.
var ErrBuilderInput = errors.New("compose: unsupported builder input")

// Keyword dispatch. The accumulated statement text decides how a
// Builder renders: the rightmost whole-word occurrence of a recognized
// keyword wins, because one query routinely contains several of them
// ("insert into ... values ..." must pick values, not insert). This is
// a context lookup over the text written so far, not a SQL parser.
type keywordRoute struct {
	re     *regexp.Regexp
	render func(st *composeState, b *Builder) error
}

var keywordRoutes = []keywordRoute{
	{regexp.MustCompile(`(?i)\bvalues\b`), renderRows},
	{regexp.MustCompile(`(?i)\bin\b`), renderIn},
	{regexp.MustCompile(`(?i)\bselect\b`), renderAliases},
	{regexp.MustCompile(`(?i)\bas\b`), renderAliases},
	{regexp.MustCompile(`(?i)\breturning\b`), renderAliases},
	{regexp.MustCompile(`\($`), renderRows},
	{regexp.MustCompile(`(?i)\bupdate\b`), renderSet},
	{regexp.MustCompile(`(?i)\binsert\b`), renderInsert},
}

// render picks the governing keyword from the text accumulated so far
// and applies its renderer. With no keyword in sight the builder
// renders as a bare escaped column list, which is what the column-list
// position of "insert into t (...)" needs.
func (b *Builder) render(st *composeState) error {
	acc := st.text.String()
	best := -1
	var fn func(*composeState, *Builder) error
	for _, route := range keywordRoutes {
		locs := route.re.FindAllStringIndex(acc, -1)
		if len(locs) == 0 {
			continue
		}
		if off := locs[len(locs)-1][0]; off > best {
			best = off
			fn = route.render
		}
	}
	if fn == nil {
		return renderColumnList(st, b)
	}
	return fn(st, b)
}

// renderRows emits one parenthesized parameter list per record, or a
// single list when the input is a plain sequence of scalars.
func renderRows(st *composeState, b *Builder) error {
	rec, err := b.normalize()
	if err != nil {
		return err
	}
	if rec.scalar {
		return writeRow(st, rec.rows[0])
	}
	for i, row := range rec.rows {
		if i > 0 {
			st.text.WriteByte(',')
		}
		if err := writeRow(st, row); err != nil {
			return err
		}
	}
	return nil
}

// renderIn is renderRows with the empty case special-cased to (null),
// so "x in ()" — invalid SQL — can never be emitted.
func renderIn(st *composeState, b *Builder) error {
	rec, err := b.normalize()
	if err != nil {
		return err
	}
	if len(rec.rows) == 0 || (len(rec.rows) == 1 && len(rec.rows[0]) == 0) {
		st.text.WriteString("(null)")
		return nil
	}
	return renderRows(st, b)
}

// renderAliases emits expr AS "column" pairs for select, as and
// returning positions. Record values name the underlying expression
// (an identifier, escaped here unless pre-escaped); record keys name
// the alias. A bare column list renders without aliases.
func renderAliases(st *composeState, b *Builder) error {
	rec, err := b.normalize()
	if err != nil {
		return err
	}
	if rec.listOnly || rec.scalar {
		return renderColumnList(st, b)
	}
	if len(rec.rows) != 1 {
		return fmt.Errorf("%w: alias rendering takes a single record", ErrBuilderInput)
	}
	for i, col := range rec.cols {
		if i > 0 {
			st.text.WriteByte(',')
		}
		switch v := rec.rows[0][i].(type) {
		case Ident:
			st.text.WriteString(v.text)
		case string:
			st.text.WriteString(EscapeIdent(v))
		default:
			return fmt.Errorf("%w: alias for %q must name an identifier, got %T",
				ErrBuilderInput, col, v)
		}
		st.text.WriteString(" AS ")
		st.text.WriteString(EscapeIdent(col))
	}
	return nil
}

// renderSet emits "col"=$n pairs for an update's SET clause.
func renderSet(st *composeState, b *Builder) error {
	rec, err := b.normalize()
	if err != nil {
		return err
	}
	if len(rec.rows) != 1 || rec.scalar {
		return fmt.Errorf("%w: set rendering takes a single record", ErrBuilderInput)
	}
	for i, col := range rec.cols {
		if i > 0 {
			st.text.WriteByte(',')
		}
		st.text.WriteString(EscapeIdent(col))
		st.text.WriteByte('=')
		if err := st.appendParam(rec.rows[0][i], codec.UntypedOID); err != nil {
			return err
		}
	}
	return nil
}

// renderInsert combines the column list and the row renderer:
// ("a","b")values($1,$2),($3,$4).
func renderInsert(st *composeState, b *Builder) error {
	rec, err := b.normalize()
	if err != nil {
		return err
	}
	if rec.scalar || len(rec.cols) == 0 {
		return fmt.Errorf("%w: insert rendering takes records", ErrBuilderInput)
	}
	st.text.WriteByte('(')
	writeColumns(st, rec.cols)
	st.text.WriteString(")values")
	for i, row := range rec.rows {
		if i > 0 {
			st.text.WriteByte(',')
		}
		if err := writeRow(st, row); err != nil {
			return err
		}
	}
	return nil
}

func renderColumnList(st *composeState, b *Builder) error {
	rec, err := b.normalize()
	if err != nil {
		return err
	}
	cols := rec.cols
	if len(cols) == 0 && rec.scalar {
		// a scalar list in column position names columns
		cols = make([]string, len(rec.rows[0]))
		for i, v := range rec.rows[0] {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: column list element %d is %T", ErrBuilderInput, i, v)
			}
			cols[i] = s
		}
	}
	writeColumns(st, cols)
	return nil
}

func writeColumns(st *composeState, cols []string) {
	for i, col := range cols {
		if i > 0 {
			st.text.WriteByte(',')
		}
		st.text.WriteString(EscapeIdent(col))
	}
}

func writeRow(st *composeState, row []any) error {
	st.text.WriteByte('(')
	for i, v := range row {
		if i > 0 {
			st.text.WriteByte(',')
		}
		if err := st.appendParam(v, codec.UntypedOID); err != nil {
			return err
		}
	}
	st.text.WriteByte(')')
	return nil
}

// recordSet is a Builder's input normalized to ordered columns and
// rows. scalar marks a plain value list (one row, no columns), and
// listOnly marks input that was nothing but column names.
type recordSet struct {
	cols     []string
	rows     [][]any
	scalar   bool
	listOnly bool
}

// normalize interprets the builder's raw input. Go maps carry no
// insertion order, so map records take their column order from the
// explicit column list when given and from sorted keys otherwise;
// struct records use field order.
func (b *Builder) normalize() (*recordSet, error) {
	switch t := b.input.(type) {
	case nil:
		return &recordSet{cols: b.cols, listOnly: len(b.cols) > 0}, nil
	case []string:
		cols := b.cols
		if len(cols) == 0 {
			cols = t
		}
		return &recordSet{cols: cols, listOnly: true}, nil
	case map[string]any:
		return b.fromMaps([]map[string]any{t})
	case []map[string]any:
		return b.fromMaps(t)
	}

	rv := reflect.ValueOf(b.input)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		return b.fromStructs([]reflect.Value{rv})
	case reflect.Slice, reflect.Array:
		return b.fromSlice(rv)
	}
	return nil, fmt.Errorf("%w: %T", ErrBuilderInput, b.input)
}

func (b *Builder) fromSlice(rv reflect.Value) (*recordSet, error) {
	if rv.Len() == 0 {
		return &recordSet{cols: b.cols, rows: [][]any{}}, nil
	}
	first := deref(rv.Index(0))
	if _, ok := first.Interface().(map[string]any); ok {
		maps := make([]map[string]any, rv.Len())
		for i := range maps {
			m, ok := deref(rv.Index(i)).Interface().(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: mixed records and scalars", ErrBuilderInput)
			}
			maps[i] = m
		}
		return b.fromMaps(maps)
	}
	if first.Kind() == reflect.Struct && !isScalarStruct(first.Interface()) {
		structs := make([]reflect.Value, rv.Len())
		for i := range structs {
			ev := deref(rv.Index(i))
			if ev.Kind() != reflect.Struct {
				return nil, fmt.Errorf("%w: mixed records and scalars", ErrBuilderInput)
			}
			structs[i] = ev
		}
		return b.fromStructs(structs)
	}
	scalars := make([]any, rv.Len())
	for i := range scalars {
		scalars[i] = rv.Index(i).Interface()
	}
	return &recordSet{rows: [][]any{scalars}, scalar: true}, nil
}

// deref unwraps interfaces and pointers down to the concrete value.
func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func (b *Builder) fromMaps(ms []map[string]any) (*recordSet, error) {
	cols := b.cols
	if len(cols) == 0 {
		for k := range ms[0] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}
	rows := make([][]any, len(ms))
	for i, m := range ms {
		row := make([]any, len(cols))
		for j, col := range cols {
			if v, ok := m[col]; ok {
				row[j] = v
			} else {
				row[j] = codec.Undefined{}
			}
		}
		rows[i] = row
	}
	return &recordSet{cols: cols, rows: rows}, nil
}

func (b *Builder) fromStructs(vs []reflect.Value) (*recordSet, error) {
	t := vs[0].Type()
	fieldByCol := make(map[string]int, t.NumField())
	var order []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		col := columnName(f)
		if col == "" {
			continue
		}
		fieldByCol[col] = i
		order = append(order, col)
	}
	cols := b.cols
	if len(cols) == 0 {
		cols = order
	}
	rows := make([][]any, len(vs))
	for i, v := range vs {
		if v.Type() != t {
			return nil, fmt.Errorf("%w: mixed record types %s and %s", ErrBuilderInput, t, v.Type())
		}
		row := make([]any, len(cols))
		for j, col := range cols {
			idx, ok := fieldByCol[col]
			if !ok {
				return nil, fmt.Errorf("%w: %s has no column %q", ErrBuilderInput, t, col)
			}
			row[j] = v.Field(idx).Interface()
		}
		rows[i] = row
	}
	return &recordSet{cols: cols, rows: rows}, nil
}

// isScalarStruct keeps struct-shaped scalar values (times, UUIDs and
// the like) out of the record path.
func isScalarStruct(v any) bool {
	return codec.Infer(v) != pgtype.JSONBOID
}
