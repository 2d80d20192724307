package compose

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Identifier escaping is on the hot path of every keyword builder, and
// the same column names recur constantly, so escaped forms are kept in
// a small LRU.
var escapeCache = func() *lru.Cache[string, string] {
	c, _ := lru.New[string, string](1024)
	return c
}()

// EscapeIdent renders a name as a quoted SQL identifier. Embedded
// quotes are doubled and a dotted name becomes separately quoted
// segments: a.b -> "a"."b".
func EscapeIdent(name string) string {
	if v, ok := escapeCache.Get(name); ok {
		return v
	}
	out := escapeIdent(name)
	escapeCache.Add(name, out)
	return out
}

func escapeIdent(name string) string {
	var sb strings.Builder
	sb.Grow(len(name) + 4)
	sb.WriteByte('"')
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '"':
			sb.WriteString(`""`)
		case '.':
			sb.WriteString(`"."`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
