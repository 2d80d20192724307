package codec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Deserialize converts one result cell back into a native value. The
// OID comes from the server's field description and is authoritative:
// results are never re-inferred locally. Unknown OIDs pass through as
// text.
func Deserialize(cell pgtype.Text, oid uint32) (any, error) {
	if !cell.Valid {
		return nil, nil
	}
	if ak, ok := arrayKinds[oid]; ok {
		return decodeArray(cell.String, ak)
	}
	return decodeScalar(cell.String, oid)
}

func decodeScalar(s string, oid uint32) (any, error) {
	k, ok := scalarKinds[oid]
	if !ok {
		return s, nil
	}
	switch k {
	case kindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("codec: bad integer %q: %w", s, err)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("codec: bad float %q: %w", s, err)
		}
		return f, nil
	case kindNumeric:
		// Arbitrary precision stays textual; converting to float here
		// would lose digits the server went to the trouble of keeping.
		return s, nil
	case kindBool:
		return s == "t", nil
	case kindBytea:
		if len(s) < 2 || s[0] != '\\' || s[1] != 'x' {
			return nil, fmt.Errorf("codec: bytea cell %q lacks hex prefix", s)
		}
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("codec: bad bytea %q: %w", s, err)
		}
		return b, nil
	case kindTime:
		return parseTime(s)
	case kindJSON:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("codec: bad json cell: %w", err)
		}
		return v, nil
	case kindUUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("codec: bad uuid %q: %w", s, err)
		}
		return id, nil
	}
	return s, nil
}

// timeLayouts covers the server's timestamp output forms plus our own
// serialized form, so encoded values decode back.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("codec: unrecognized time %q", s)
}

// decodeArray parses the array literal and decodes each element with
// the array's element OID. NULL tokens decode to nil, and a quoted
// empty string stays an empty element of the element type.
func decodeArray(src string, ak arrayKind) (any, error) {
	p := &arrayParser{src: src, delim: ak.delim}
	elems, err := p.parse()
	if err != nil {
		return nil, err
	}
	return decodeElems(elems, ak.elem)
}

func decodeElems(elems []textElem, elemOID uint32) ([]any, error) {
	out := make([]any, len(elems))
	for i, e := range elems {
		switch {
		case e.nested:
			sub, err := decodeElems(e.sub, elemOID)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		case !e.quoted && e.text == "NULL":
			out[i] = nil
		default:
			v, err := decodeScalar(e.text, elemOID)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
	}
	return out, nil
}
