package schema

import (
	"strconv"
	"strings"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// Datatype is the abstract, lower-case column type tag (the SQL type name
// without parameters), e.g. "varchar", "decimal", "timestamp".
type Datatype string

// Common datatype tags. Any other tag is accepted and resolved by the type
// mapper, which falls back for names it does not know.
const (
	TypeTinyInt   Datatype = "tinyint"
	TypeSmallInt  Datatype = "smallint"
	TypeMediumInt Datatype = "mediumint"
	TypeInt       Datatype = "int"
	TypeInteger   Datatype = "integer"
	TypeBigInt    Datatype = "bigint"
	TypeFloat     Datatype = "float"
	TypeReal      Datatype = "real"
	TypeDouble    Datatype = "double"
	TypeDecimal   Datatype = "decimal"
	TypeNumeric   Datatype = "numeric"
	TypeChar      Datatype = "char"
	TypeVarchar   Datatype = "varchar"
	TypeText      Datatype = "text"
	TypeBlob      Datatype = "blob"
	TypeBinary    Datatype = "binary"
	TypeVarBinary Datatype = "varbinary"
	TypeDate      Datatype = "date"
	TypeTime      Datatype = "time"
	TypeDateTime  Datatype = "datetime"
	TypeTimestamp Datatype = "timestamp"
	TypeYear      Datatype = "year"
	TypeBool      Datatype = "boolean"
	TypeJSON      Datatype = "json"
	TypeEnum      Datatype = "enum"
	TypeSet       Datatype = "set"
	TypeUUID      Datatype = "uuid"
	TypeGeometry  Datatype = "geometry"
)

// IsDecimal reports whether the datatype carries precision and scale.
func (d Datatype) IsDecimal() bool {
	switch d {
	case TypeDecimal, TypeNumeric, "dec", "fixed":
		return true
	}
	return false
}

// ColumnType is a parsed SQL column type string.
type ColumnType struct {
	Datatype  Datatype
	Length    int
	Precision int
	Scale     int
	Unsigned  bool
}

// ParseColumnType parses strings such as "VARCHAR(255)", "decimal(10, 2)",
// "int unsigned", "character varying(40)" or "enum('a','b')".
// Enum and set member lists are accepted and discarded.
func ParseColumnType(s string) (ColumnType, error) {
	var ct ColumnType

	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" {
		return ct, alerr.New(alerr.ErrInvalidColumnType, "column type is empty")
	}

	base, params := raw, ""
	if open := strings.IndexByte(raw, '('); open >= 0 {
		end := strings.LastIndexByte(raw, ')')
		if end < open {
			return ct, alerr.Newf(alerr.ErrInvalidColumnType, "unbalanced parentheses in %q", s)
		}
		base = raw[:open]
		params = raw[open+1 : end]
		rest := strings.TrimSpace(raw[end+1:])
		ct.Unsigned = strings.Contains(rest, "unsigned")
	}

	words := strings.Fields(base)
	kept := words[:0]
	for _, w := range words {
		switch w {
		case "unsigned":
			ct.Unsigned = true
		case "signed", "zerofill":
		default:
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return ct, alerr.Newf(alerr.ErrInvalidColumnType, "no type name in %q", s)
	}
	ct.Datatype = canonicalDatatype(strings.Join(kept, " "))

	if params == "" || ct.Datatype == TypeEnum || ct.Datatype == TypeSet {
		return ct, nil
	}

	nums := strings.Split(params, ",")
	values := make([]int, 0, len(nums))
	for _, n := range nums {
		v, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return ct, alerr.Wrapf(alerr.ErrInvalidColumnType, err, "invalid type parameter in %q", s)
		}
		values = append(values, v)
	}

	if ct.Datatype.IsDecimal() {
		ct.Precision = values[0]
		if len(values) > 1 {
			ct.Scale = values[1]
		}
		return ct, nil
	}
	ct.Length = values[0]
	return ct, nil
}

// canonicalDatatype folds multi-word SQL spellings into a single tag.
func canonicalDatatype(name string) Datatype {
	switch name {
	case "character varying", "char varying", "national varchar", "national character varying":
		return TypeVarchar
	case "character", "national char", "national character":
		return TypeChar
	case "double precision":
		return TypeDouble
	case "timestamp without time zone", "timestamp with time zone", "timestamptz":
		return TypeTimestamp
	case "time without time zone", "time with time zone", "timetz":
		return TypeTime
	case "bool":
		return TypeBool
	}
	return Datatype(name)
}
