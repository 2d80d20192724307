package codec

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ErrUnrepresentable reports a value slot that has no wire form.
var ErrUnrepresentable = errors.New("codec: value has no wire representation")

// Undefined is a sentinel for "no value was provided here". It is not
// the same thing as NULL: NULL has a wire form, Undefined does not.
// Serializing it fails unless the caller configured a substitute, so a
// missing value can never silently reach the server as NULL.
type Undefined struct{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(Undefined)
	return ok
}

// Serialize converts a native value to its canonical text wire form.
// NULL is not handled here: callers decide how to transmit the absence
// of a value before serialization runs.
func Serialize(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: NULL must be handled by the caller", ErrUnrepresentable)
	case Undefined:
		return "", fmt.Errorf("%w: undefined value", ErrUnrepresentable)
	case string:
		return t, nil
	case bool:
		if t {
			return "t", nil
		}
		return "f", nil
	case int:
		return strconv.FormatInt(int64(t), 10), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 64), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case []byte:
		return `\x` + hex.EncodeToString(t), nil
	case uuid.UUID:
		return t.String(), nil
	case ulid.ULID:
		return t.String(), nil
	case json.RawMessage:
		return string(t), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "", fmt.Errorf("%w: nil pointer", ErrUnrepresentable)
		}
		return Serialize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return serializeArray(rv)
	}

	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrepresentable, err)
	}
	return string(out), nil
}

// serializeArray renders a slice as a Postgres array literal. Elements
// that need it are double-quoted so the text round-trips through the
// array parser.
func serializeArray(rv reflect.Value) (string, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		ev := rv.Index(i)
		if !ev.IsValid() || (ev.Kind() == reflect.Interface && ev.IsNil()) {
			sb.WriteString("NULL")
			continue
		}
		elem := ev.Interface()
		if elem == nil {
			sb.WriteString("NULL")
			continue
		}
		erv := reflect.ValueOf(elem)
		if erv.Kind() == reflect.Slice && erv.Type().Elem().Kind() != reflect.Uint8 {
			nested, err := serializeArray(erv)
			if err != nil {
				return "", err
			}
			sb.WriteString(nested)
			continue
		}
		text, err := Serialize(elem)
		if err != nil {
			return "", err
		}
		sb.WriteString(quoteArrayElem(text))
	}
	sb.WriteByte('}')
	return sb.String(), nil
}

// quoteArrayElem quotes an element whose text would otherwise be
// ambiguous inside an array literal.
func quoteArrayElem(s string) string {
	if s != "" && !strings.EqualFold(s, "null") && !strings.ContainsAny(s, `{},;"\ `) {
		return s
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}
