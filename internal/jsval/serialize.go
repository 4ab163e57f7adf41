package jsval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hlop3z/seqgen/internal/strutil"
)

// Options controls rendering.
type Options struct {
	// Multiline puts each list item and map entry on its own line.
	Multiline bool
	// Indent is one indentation unit, e.g. four spaces or a tab.
	Indent string
	// Depth is the indentation level of the line the value starts on.
	// Closing brackets align to it.
	Depth int
}

// Serialize renders n as JavaScript source.
//
// Multiline output for a map at depth 1 with a four-space unit:
//
//	{
//	        id: {
//	            type: DataTypes.INTEGER
//	        }
//	    }
//
// Empty lists and maps, including maps whose every value is Null, render as
// [] and {}.
func Serialize(n Node, opts Options) string {
	var b strings.Builder
	w := &serializer{b: &b, indent: opts.Indent}
	w.node(n, opts.Depth, opts.Multiline)
	return b.String()
}

type serializer struct {
	b      *strings.Builder
	indent string
}

func (s *serializer) node(n Node, depth int, multiline bool) {
	switch v := n.(type) {
	case nil, Null:
		s.b.WriteString("null")
	case Bool:
		s.b.WriteString(strconv.FormatBool(bool(v)))
	case Number:
		s.b.WriteString(formatNumber(float64(v)))
	case Str:
		s.b.WriteString(Quote(string(v)))
	case Raw:
		s.b.WriteString(string(v))
	case *List:
		s.list(v, depth, multiline && !v.Inline)
	case *Map:
		s.object(v, depth, multiline)
	default:
		panic(fmt.Sprintf("jsval: unknown node type %T", n))
	}
}

func (s *serializer) list(l *List, depth int, multiline bool) {
	if l == nil || len(l.Items) == 0 {
		s.b.WriteString("[]")
		return
	}

	s.b.WriteByte('[')
	for i, item := range l.Items {
		s.separator(i, depth, multiline)
		s.node(item, depth+1, multiline)
	}
	s.close(']', depth, multiline)
}

func (s *serializer) object(m *Map, depth int, multiline bool) {
	var keys []string
	if m != nil {
		for _, k := range m.keys {
			if !IsNull(m.values[k]) {
				keys = append(keys, k)
			}
		}
	}
	if len(keys) == 0 {
		s.b.WriteString("{}")
		return
	}

	s.b.WriteByte('{')
	for i, k := range keys {
		s.separator(i, depth, multiline)
		s.b.WriteString(Key(k))
		s.b.WriteString(": ")
		s.node(m.values[k], depth+1, multiline)
	}
	s.close('}', depth, multiline)
}

func (s *serializer) separator(i, depth int, multiline bool) {
	if i > 0 {
		s.b.WriteByte(',')
		if !multiline {
			s.b.WriteByte(' ')
		}
	}
	if multiline {
		s.b.WriteByte('\n')
		s.b.WriteString(strings.Repeat(s.indent, depth+1))
	}
}

func (s *serializer) close(bracket byte, depth int, multiline bool) {
	if multiline {
		s.b.WriteByte('\n')
		s.b.WriteString(strings.Repeat(s.indent, depth))
	}
	s.b.WriteByte(bracket)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Key renders an object key, bare when it is a valid identifier and quoted
// otherwise.
func Key(k string) string {
	if strutil.IsJSIdentifier(k, true) {
		return k
	}
	return Quote(k)
}

// Quote renders s as a single-quoted JavaScript string literal.
//
// Bytes that are not valid UTF-8 are written as \xNN escapes, which
// JavaScript reads as the code unit U+00NN. Such strings keep every byte
// but do not round-trip to the same Go string.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&b, `\x%02x`, s[i])
			i++
			continue
		}
		i += size

		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
