package codec

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =========================================================================
// Type Inference Tests
// =========================================================================

func TestInfer(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name     string
		value    any
		expected uint32
	}{
		{"Nil", nil, UntypedOID},
		{"Bool", true, pgtype.BoolOID},
		{"Int32", int32(7), pgtype.Int4OID},
		{"Int16", int16(7), pgtype.Int4OID},
		{"Int", 7, pgtype.Int8OID},
		{"Int64", int64(7), pgtype.Int8OID},
		{"Float64", 3.5, pgtype.Float8OID},
		{"Float32", float32(3.5), pgtype.Float8OID},
		{"String", "hello", pgtype.TextOID},
		{"Bytes", []byte{1, 2}, pgtype.ByteaOID},
		{"Time", time.Now(), pgtype.TimestamptzOID},
		{"UUID", id, pgtype.UUIDOID},
		{"StringSlice", []string{"a"}, pgtype.TextArrayOID},
		{"IntSlice", []int{1}, pgtype.Int8ArrayOID},
		{"EmptySlice", []string{}, UntypedOID},
		{"Map", map[string]any{"a": 1}, pgtype.JSONBOID},
		{"Struct", struct{ A int }{1}, pgtype.JSONBOID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Infer(tt.value))
		})
	}
}

// =========================================================================
// Serialization Tests
// =========================================================================

func TestSerialize(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"String", "hello", "hello"},
		{"True", true, "t"},
		{"False", false, "f"},
		{"Int", 42, "42"},
		{"NegativeInt", int64(-7), "-7"},
		{"Float", 1.5, "1.5"},
		{"WholeFloat", float64(30), "30"},
		{"Bytes", []byte{0xde, 0xad}, `\xdead`},
		{"PlainArray", []string{"a", "b"}, "{a,b}"},
		{"QuotedArray", []string{"a b", ""}, `{"a b",""}`},
		{"NullElement", []any{nil, "x"}, "{NULL,x}"},
		{"QuoteInElement", []string{`a"b`}, `{"a\"b"}`},
		{"NestedArray", [][]int{{1, 2}, {3, 4}}, "{{1,2},{3,4}}"},
		{"JSONObject", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Serialize(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSerializeTime(t *testing.T) {
	ts := time.Date(2025, 3, 9, 12, 30, 15, 0, time.UTC)
	got, err := Serialize(ts)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09T12:30:15Z", got)
}

func TestSerializeUndefined(t *testing.T) {
	_, err := Serialize(Undefined{})
	require.ErrorIs(t, err, ErrUnrepresentable)

	_, err = Serialize(nil)
	require.ErrorIs(t, err, ErrUnrepresentable)
}

// =========================================================================
// Deserialization Tests
// =========================================================================

func text(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }

func TestDeserialize(t *testing.T) {
	tests := []struct {
		name     string
		cell     pgtype.Text
		oid      uint32
		expected any
	}{
		{"Null", pgtype.Text{}, pgtype.TextOID, nil},
		{"Text", text("hi"), pgtype.TextOID, "hi"},
		{"Int4", text("42"), pgtype.Int4OID, int64(42)},
		{"Int8", text("9007199254740993"), pgtype.Int8OID, int64(9007199254740993)},
		{"Float8", text("1.25"), pgtype.Float8OID, 1.25},
		{"NumericStaysText", text("12.3450"), pgtype.NumericOID, "12.3450"},
		{"BoolTrue", text("t"), pgtype.BoolOID, true},
		{"BoolFalse", text("f"), pgtype.BoolOID, false},
		{"Bytea", text(`\xdead`), pgtype.ByteaOID, []byte{0xde, 0xad}},
		{"JSON", text(`{"a":1}`), pgtype.JSONBOID, map[string]any{"a": float64(1)}},
		{"UnknownPassthrough", text("(1,2)"), 600, "(1,2)"},
		{"TextArray", text("{a,b}"), pgtype.TextArrayOID, []any{"a", "b"}},
		{"Int4Array", text("{1,2,3}"), pgtype.Int4ArrayOID, []any{int64(1), int64(2), int64(3)}},
		{"ArrayNull", text("{NULL,x}"), pgtype.TextArrayOID, []any{nil, "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Deserialize(tt.cell, tt.oid)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDeserializeTimestamps(t *testing.T) {
	tests := []struct {
		name string
		cell string
		oid  uint32
	}{
		{"ServerForm", "2025-03-09 12:30:15.123456+00", pgtype.TimestamptzOID},
		{"SerializedForm", "2025-03-09T12:30:15.123456Z", pgtype.TimestamptzOID},
		{"DateOnly", "2025-03-09", pgtype.DateOID},
		{"NoZone", "2025-03-09 12:30:15", pgtype.TimestampOID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Deserialize(text(tt.cell), tt.oid)
			require.NoError(t, err)
			require.IsType(t, time.Time{}, got)
			assert.Equal(t, 2025, got.(time.Time).Year())
		})
	}
}

func TestDeserializeUUID(t *testing.T) {
	id := uuid.New()
	got, err := Deserialize(text(id.String()), pgtype.UUIDOID)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestDeserializeBadInput(t *testing.T) {
	_, err := Deserialize(text("nope"), pgtype.Int4OID)
	assert.Error(t, err)

	_, err = Deserialize(text("dead"), pgtype.ByteaOID)
	assert.Error(t, err, "bytea without hex prefix must fail")
}

// =========================================================================
// Round-Trip Tests
// =========================================================================

func TestRoundTrip(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2024, 11, 2, 8, 15, 0, 500000000, time.FixedZone("", 3600))

	tests := []struct {
		name  string
		value any
	}{
		{"String", "hello world"},
		{"Int", int64(42)},
		{"Float", 2.75},
		{"Bool", true},
		{"Bytes", []byte{0, 1, 2, 255}},
		{"UUID", id},
		{"JSON", map[string]any{"a": float64(1), "b": "two"}},
		{"TextArray", []any{"a", "b c", `d"e`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := Serialize(tt.value)
			require.NoError(t, err)
			got, err := Deserialize(text(wire), Infer(tt.value))
			require.NoError(t, err)
			assert.EqualValues(t, tt.value, got)
		})
	}

	t.Run("Time", func(t *testing.T) {
		wire, err := Serialize(ts)
		require.NoError(t, err)
		got, err := Deserialize(text(wire), Infer(ts))
		require.NoError(t, err)
		require.IsType(t, time.Time{}, got)
		assert.True(t, ts.Equal(got.(time.Time)), "same instant after round trip")
	})
}
