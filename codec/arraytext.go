package codec

import (
	"fmt"
	"strings"
)

// textElem is one parsed element of an array literal. Quoted elements
// keep their quoted flag so an explicit empty string stays distinct
// from an absent element and from an unquoted NULL token.
type textElem struct {
	text   string
	quoted bool
	sub    []textElem
	nested bool
}

// arrayParser scans one bracketed array literal. A fresh value is
// created per top-level parse, so parses are reentrant and nested
// parses share no state beyond the explicit scan position.
type arrayParser struct {
	src   string
	pos   int
	delim byte
}

// ParseArrayText decodes a comma-delimited array literal into untyped
// elements: strings for scalars, nested []any for sub-arrays, nil for
// NULL tokens.
func ParseArrayText(src string) ([]any, error) {
	p := &arrayParser{src: src, delim: ','}
	elems, err := p.parse()
	if err != nil {
		return nil, err
	}
	return untyped(elems), nil
}

func untyped(elems []textElem) []any {
	out := make([]any, len(elems))
	for i, e := range elems {
		switch {
		case e.nested:
			out[i] = untyped(e.sub)
		case !e.quoted && e.text == "NULL":
			out[i] = nil
		default:
			out[i] = e.text
		}
	}
	return out
}

func (p *arrayParser) parse() ([]textElem, error) {
	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		return nil, fmt.Errorf("codec: malformed array text at offset %d", p.pos)
	}
	p.pos++

	elems := []textElem{}
	var buf strings.Builder
	pending := false
	flush := func() {
		if pending {
			elems = append(elems, textElem{text: buf.String()})
			buf.Reset()
			pending = false
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"' && !pending:
			text, err := p.parseQuoted()
			if err != nil {
				return nil, err
			}
			elems = append(elems, textElem{text: text, quoted: true})
		case c == '{' && !pending:
			sub, err := p.parse()
			if err != nil {
				return nil, err
			}
			elems = append(elems, textElem{sub: sub, nested: true})
		case c == '}':
			p.pos++
			flush()
			return elems, nil
		case c == p.delim:
			p.pos++
			flush()
		default:
			pending = true
			buf.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("codec: unterminated array text %q", p.src)
}

// parseQuoted consumes a double-quoted element. Backslash escapes the
// next byte; a doubled quote inside the span is a literal quote.
func (p *arrayParser) parseQuoted() (string, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", fmt.Errorf("codec: dangling escape in array text %q", p.src)
			}
			sb.WriteByte(p.src[p.pos])
			p.pos++
		case '"':
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '"' {
				sb.WriteByte('"')
				p.pos += 2
				continue
			}
			p.pos++ // closing quote
			return sb.String(), nil
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("codec: unterminated quoted element in array text %q", p.src)
}
