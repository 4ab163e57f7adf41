// Package types maps abstract column datatypes onto Sequelize DataTypes members.
//
// The mapping is a static registry: each TypeDef names one DataTypes member and
// the datatype tags that resolve to it. Tags the registry does not know fall
// back to STRING.BINARY.
package types

import (
	"fmt"
	"sort"

	"github.com/hlop3z/seqgen/internal/jsval"
	"github.com/hlop3z/seqgen/internal/schema"
)

// Fallback is the DataTypes member used for unknown datatypes.
const Fallback = "STRING"

// fallbackModifier is appended after any length suffix on the fallback type.
const fallbackModifier = ".BINARY"

// -----------------------------------------------------------------------------
// TypeDef - Type definition
// -----------------------------------------------------------------------------

// Params describes which column parameters a type renders.
type Params int

const (
	// ParamsLength renders "(length)" when the column length is positive.
	ParamsLength Params = iota
	// ParamsPrecisionScale renders "(precision, scale)".
	ParamsPrecisionScale
)

// TypeDef is one Sequelize DataTypes member.
type TypeDef struct {
	Name     string            // DataTypes member, e.g. "INTEGER"
	Tags     []schema.Datatype // datatype tags resolving to this member
	TSType   string            // TypeScript type of attribute values
	Params   Params
	Document string // short description for the types listing
}

// -----------------------------------------------------------------------------
// Type Registry
// -----------------------------------------------------------------------------

var (
	registry = make(map[string]*TypeDef)
	byTag    = make(map[schema.Datatype]*TypeDef)
)

// Register adds a type to the registry. It panics on a duplicate member name
// or a tag claimed by another type.
func Register(t *TypeDef) {
	if _, exists := registry[t.Name]; exists {
		panic("type already registered: " + t.Name)
	}
	for _, tag := range t.Tags {
		if prev, taken := byTag[tag]; taken {
			panic(fmt.Sprintf("datatype %q already mapped to %s", tag, prev.Name))
		}
	}
	registry[t.Name] = t
	for _, tag := range t.Tags {
		byTag[tag] = t
	}
}

// Lookup returns the type a datatype tag resolves to.
func Lookup(tag schema.Datatype) (*TypeDef, bool) {
	t, ok := byTag[tag]
	return t, ok
}

// All returns every registered type sorted by name.
func All() []*TypeDef {
	out := make([]*TypeDef, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// -----------------------------------------------------------------------------
// Mapping
// -----------------------------------------------------------------------------

// MapType returns the DataTypes expression for a column without the
// "DataTypes." prefix, e.g. "STRING(255)" or "DECIMAL(10, 2)". resolved is
// false when the datatype is unknown and the fallback was used.
func MapType(c *schema.Column) (expr string, resolved bool) {
	t, ok := byTag[c.Datatype]
	if !ok {
		if c.Length > 0 {
			return fmt.Sprintf("%s(%d)%s", Fallback, c.Length, fallbackModifier), false
		}
		return Fallback + fallbackModifier, false
	}

	switch {
	case t.Params == ParamsPrecisionScale:
		return fmt.Sprintf("%s(%d, %d)", t.Name, c.Precision, c.Scale), true
	case t.Params == ParamsLength && c.Length > 0:
		return fmt.Sprintf("%s(%d)", t.Name, c.Length), true
	default:
		return t.Name, true
	}
}

// TypeRef wraps MapType as the raw DataTypes reference used in a field
// descriptor.
func TypeRef(c *schema.Column) (jsval.Raw, bool) {
	expr, ok := MapType(c)
	return jsval.Raw("DataTypes." + expr), ok
}

// -----------------------------------------------------------------------------
// Built-in Types
// -----------------------------------------------------------------------------

func init() {
	Register(&TypeDef{
		Name:     "INTEGER",
		Tags:     []schema.Datatype{"tinyint", "smallint", "mediumint", "int", "integer", "int1", "int2", "int3", "int4", "middleint", "year", "bit"},
		TSType:   "number",
		Document: "32-bit integer",
	})
	Register(&TypeDef{
		Name:     "BIGINT",
		Tags:     []schema.Datatype{"bigint", "int8", "serial8", "bigserial"},
		TSType:   "string",
		Document: "64-bit integer, returned as string",
	})
	Register(&TypeDef{
		Name:     "FLOAT",
		Tags:     []schema.Datatype{"float", "float4", "real"},
		TSType:   "number",
		Document: "single precision float",
	})
	Register(&TypeDef{
		Name:     "DOUBLE",
		Tags:     []schema.Datatype{"double", "float8"},
		TSType:   "number",
		Document: "double precision float",
	})
	Register(&TypeDef{
		Name:     "DECIMAL",
		Tags:     []schema.Datatype{"decimal", "numeric", "dec", "fixed"},
		TSType:   "string",
		Params:   ParamsPrecisionScale,
		Document: "exact decimal with precision and scale",
	})
	Register(&TypeDef{
		Name:     "CHAR",
		Tags:     []schema.Datatype{"char", "nchar", "bpchar"},
		TSType:   "string",
		Document: "fixed-length string",
	})
	Register(&TypeDef{
		Name:     "STRING",
		Tags:     []schema.Datatype{"varchar", "nvarchar", "set", "citext"},
		TSType:   "string",
		Document: "variable-length string",
	})
	Register(&TypeDef{
		Name:     "TEXT",
		Tags:     []schema.Datatype{"tinytext", "text", "mediumtext", "longtext", "longvarchar", "clob"},
		TSType:   "string",
		Document: "unbounded text",
	})
	Register(&TypeDef{
		Name:     "BLOB",
		Tags:     []schema.Datatype{"binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob", "longvarbinary", "bytea"},
		TSType:   "Buffer",
		Document: "binary data",
	})
	Register(&TypeDef{
		Name:     "DATE",
		Tags:     []schema.Datatype{"datetime", "datetime_f", "timestamp", "timestamp_f"},
		TSType:   "Date",
		Document: "date and time",
	})
	Register(&TypeDef{
		Name:     "DATEONLY",
		Tags:     []schema.Datatype{"date", "date_f"},
		TSType:   "string",
		Document: "date without time",
	})
	Register(&TypeDef{
		Name:     "TIME",
		Tags:     []schema.Datatype{"time", "time_f"},
		TSType:   "string",
		Document: "time of day",
	})
	Register(&TypeDef{
		Name:     "GEOMETRY",
		Tags:     []schema.Datatype{"geometry", "point", "linestring", "polygon", "multipoint", "multilinestring", "multipolygon", "geometrycollection"},
		TSType:   "object",
		Document: "spatial value (GeoJSON)",
	})
	Register(&TypeDef{
		Name:     "ENUM",
		Tags:     []schema.Datatype{"enum"},
		TSType:   "string",
		Document: "enumerated string",
	})
	Register(&TypeDef{
		Name:     "BOOLEAN",
		Tags:     []schema.Datatype{"boolean", "bool"},
		TSType:   "boolean",
		Document: "true or false",
	})
	Register(&TypeDef{
		Name:     "JSON",
		Tags:     []schema.Datatype{"json", "jsonb"},
		TSType:   "object",
		Document: "JSON document",
	})
	Register(&TypeDef{
		Name:     "UUID",
		Tags:     []schema.Datatype{"uuid"},
		TSType:   "string",
		Document: "UUID",
	})
}
