// Package jsval models JavaScript literal values as a tree and renders them as
// JavaScript source. Raw nodes carry code that is emitted verbatim, which is
// how identifiers such as DataTypes.INTEGER or sequelize end up unquoted.
package jsval

import "slices"

// Node is one value in the tree. The concrete types are Null, Bool, Number,
// Str, Raw, *List and *Map. A nil Node is treated as Null.
type Node interface {
	jsNode()
}

// Null is the JavaScript null. Map entries holding Null are omitted on output.
type Null struct{}

// Bool is a boolean literal.
type Bool bool

// Number is a numeric literal.
type Number float64

// Str is a string, rendered as a single-quoted literal.
type Str string

// Raw is JavaScript code emitted exactly as given.
type Raw string

func (Null) jsNode()   {}
func (Bool) jsNode()   {}
func (Number) jsNode() {}
func (Str) jsNode()    {}
func (Raw) jsNode()    {}
func (*List) jsNode()  {}
func (*Map) jsNode()   {}

// IsNull reports whether n is nil or Null.
func IsNull(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(Null)
	return ok
}

// -----------------------------------------------------------------------------
// List
// -----------------------------------------------------------------------------

// List is an ordered sequence. An Inline list always renders on one line,
// even inside a multiline tree.
type List struct {
	Items  []Node
	Inline bool
}

// NewList creates a list of items.
func NewList(items ...Node) *List {
	return &List{Items: items}
}

// InlineList creates a list that renders on a single line.
func InlineList(items ...Node) *List {
	return &List{Items: items, Inline: true}
}

// Strings creates an inline list of string literals.
func Strings(values ...string) *List {
	items := make([]Node, len(values))
	for i, v := range values {
		items[i] = Str(v)
	}
	return InlineList(items...)
}

// Append adds items to the end of the list.
func (l *List) Append(items ...Node) *List {
	l.Items = append(l.Items, items...)
	return l
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}

// -----------------------------------------------------------------------------
// Map
// -----------------------------------------------------------------------------

// Map is an insertion-ordered object with unique keys.
type Map struct {
	keys   []string
	values map[string]Node
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Node)}
}

// Set stores v under key. An existing key keeps its position.
func (m *Map) Set(key string, v Node) *Map {
	if m.values == nil {
		m.values = make(map[string]Node)
	}
	if v == nil {
		v = Null{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

// SetDefault stores v under key only when key is absent.
func (m *Map) SetDefault(key string, v Node) *Map {
	if !m.Has(key) {
		m.Set(key, v)
	}
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Node, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	return slices.Clone(m.keys)
}

// Len returns the number of entries, Null values included.
func (m *Map) Len() int {
	return len(m.keys)
}

// Merge copies every entry of other into m, overwriting existing keys.
func (m *Map) Merge(other *Map) *Map {
	if other == nil {
		return m
	}
	for _, k := range other.keys {
		m.Set(k, other.values[k])
	}
	return m
}
