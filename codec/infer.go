package codec

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oklog/ulid/v2"
)

// Infer maps a native value to the wire type OID it should be tagged
// with. An explicit OID supplied by the caller always takes precedence
// over this; Infer only runs for untagged values.
//
// Go integers map by width: 32 bits and under go out as int4, everything
// wider (including plain int, which is 64-bit on every platform we
// target) as int8. Slices take the array OID of their element type, and
// an empty slice stays untyped so the server can decide. Maps and
// structs that are not one of the recognized scalar types encode as
// jsonb.
func Infer(v any) uint32 {
	switch v.(type) {
	case nil:
		return UntypedOID
	case bool:
		return pgtype.BoolOID
	case int8, int16, int32, uint8, uint16:
		return pgtype.Int4OID
	case int, int64, uint, uint32, uint64:
		return pgtype.Int8OID
	case float32, float64:
		return pgtype.Float8OID
	case string:
		return pgtype.TextOID
	case []byte:
		return pgtype.ByteaOID
	case time.Time:
		return pgtype.TimestamptzOID
	case uuid.UUID:
		return pgtype.UUIDOID
	case ulid.ULID:
		return pgtype.TextOID
	case json.RawMessage:
		return pgtype.JSONBOID
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return UntypedOID
		}
		return Infer(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return UntypedOID
		}
		return ArrayOID(Infer(rv.Index(0).Interface()))
	case reflect.Map, reflect.Struct:
		return pgtype.JSONBOID
	case reflect.Bool:
		return pgtype.BoolOID
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return pgtype.Int4OID
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return pgtype.Int8OID
	case reflect.Float32, reflect.Float64:
		return pgtype.Float8OID
	case reflect.String:
		return pgtype.TextOID
	}
	return pgtype.TextOID
}
