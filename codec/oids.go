package codec

import "github.com/jackc/pgx/v5/pgtype"

// The wire identifies every column and parameter by a Postgres type OID.
// Everything the codec knows about a given OID lives in the two tables
// below so the encode and decode directions stay auditable against each
// other: scalarKinds drives Deserialize, arrayKinds drives both array
// decoding and the element-to-array lookup used by type inference.

// UntypedOID marks a parameter whose type is left for the server to infer.
const UntypedOID = uint32(0)

// kind buckets scalar OIDs by decode behavior.
type kind int

const (
	kindText kind = iota
	kindInt
	kindFloat
	kindNumeric
	kindBool
	kindBytea
	kindTime
	kindJSON
	kindUUID
)

var scalarKinds = map[uint32]kind{
	pgtype.BoolOID:        kindBool,
	pgtype.ByteaOID:       kindBytea,
	pgtype.NameOID:        kindText,
	pgtype.Int8OID:        kindInt,
	pgtype.Int2OID:        kindInt,
	pgtype.Int4OID:        kindInt,
	pgtype.TextOID:        kindText,
	pgtype.OIDOID:         kindInt,
	pgtype.JSONOID:        kindJSON,
	pgtype.Float4OID:      kindFloat,
	pgtype.Float8OID:      kindFloat,
	pgtype.BPCharOID:      kindText,
	pgtype.VarcharOID:     kindText,
	pgtype.DateOID:        kindTime,
	pgtype.TimestampOID:   kindTime,
	pgtype.TimestamptzOID: kindTime,
	pgtype.NumericOID:     kindNumeric,
	pgtype.UUIDOID:        kindUUID,
	pgtype.JSONBOID:       kindJSON,
}

// arrayKind ties an array OID to its element OID and the delimiter used
// in its text form. Every array type delimits with a comma except box[],
// which uses a semicolon because boxes contain commas themselves.
type arrayKind struct {
	elem  uint32
	delim byte
}

var arrayKinds = map[uint32]arrayKind{
	pgtype.BoolArrayOID:        {pgtype.BoolOID, ','},
	pgtype.ByteaArrayOID:       {pgtype.ByteaOID, ','},
	pgtype.Int2ArrayOID:        {pgtype.Int2OID, ','},
	pgtype.Int4ArrayOID:        {pgtype.Int4OID, ','},
	pgtype.TextArrayOID:        {pgtype.TextOID, ','},
	pgtype.VarcharArrayOID:     {pgtype.VarcharOID, ','},
	pgtype.Int8ArrayOID:        {pgtype.Int8OID, ','},
	pgtype.BoxArrayOID:         {pgtype.BoxOID, ';'},
	pgtype.Float4ArrayOID:      {pgtype.Float4OID, ','},
	pgtype.Float8ArrayOID:      {pgtype.Float8OID, ','},
	pgtype.DateArrayOID:        {pgtype.DateOID, ','},
	pgtype.TimestampArrayOID:   {pgtype.TimestampOID, ','},
	pgtype.TimestamptzArrayOID: {pgtype.TimestamptzOID, ','},
	pgtype.NumericArrayOID:     {pgtype.NumericOID, ','},
	pgtype.UUIDArrayOID:        {pgtype.UUIDOID, ','},
	pgtype.JSONBArrayOID:       {pgtype.JSONBOID, ','},
}

// elemToArray is the reverse lookup, derived so the two directions cannot
// drift apart.
var elemToArray = func() map[uint32]uint32 {
	m := make(map[uint32]uint32, len(arrayKinds))
	for arr, ak := range arrayKinds {
		m[ak.elem] = arr
	}
	return m
}()

// ArrayOID returns the array OID whose elements have the given OID, or
// UntypedOID when no array form is known.
func ArrayOID(elem uint32) uint32 {
	return elemToArray[elem]
}
