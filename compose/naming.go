package compose

import (
	"reflect"
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// Naming helpers for builder inputs that arrive as structs: field names
// become snake_case columns unless a db tag says otherwise, and struct
// names become pluralized snake_case table identifiers.

var pluralizeClient = pluralizer.NewClient()

// TableIdent derives a table identifier from a struct (or pointer to
// struct) by snake_casing and pluralizing its type name: BlogPost ->
// "blog_posts".
func TableIdent(v any) Ident {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return NewIdent("")
	}
	return NewIdent(pluralizeClient.Pluralize(toSnakeCase(t.Name()), 2, false))
}

// columnName resolves a struct field's column name from its db tag,
// falling back to snake_case. A "-" tag excludes the field.
func columnName(f reflect.StructField) string {
	tag := f.Tag.Get("db")
	if tag == "-" {
		return ""
	}
	if tag != "" {
		if idx := strings.IndexByte(tag, ','); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	}
	return toSnakeCase(f.Name)
}

// toSnakeCase converts Go naming to snake_case, keeping acronym runs
// together: UserID -> user_id, HTTPPort -> http_port.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	runes := []rune(name)
	var sb strings.Builder
	sb.Grow(len(name) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
