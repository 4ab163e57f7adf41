// Package model builds the value trees passed to a Sequelize Model.init call:
// the field descriptors, the options object and its index list.
package model

import (
	"log/slog"
	"strings"

	"github.com/hlop3z/seqgen/internal/jsval"
	"github.com/hlop3z/seqgen/internal/schema"
	"github.com/hlop3z/seqgen/internal/types"
)

// Builder turns schema tables into value trees.
type Builder struct {
	// Logger receives a warning for every column whose datatype fell back to
	// STRING.BINARY. Nil means slog.Default().
	Logger *slog.Logger
}

// NewBuilder creates a Builder logging to logger.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{Logger: logger}
}

func (b *Builder) logger() *slog.Logger {
	if b == nil || b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// BuildFields returns one descriptor per column, in column order.
//
// A descriptor always has type. primaryKey is set for primary key columns.
// autoIncrement and allowNull: false are mutually exclusive, autoIncrement
// winning. Columns taking part in foreign keys get references, and onUpdate
// and onDelete when the rules are set, all taken from the column's last
// foreign key.
func (b *Builder) BuildFields(t *schema.Table) *jsval.Map {
	fields := jsval.NewMap()

	for _, c := range t.Columns {
		ref, resolved := types.TypeRef(c)
		if !resolved {
			b.logger().Warn("unknown datatype, using fallback",
				"table", t.Name,
				"column", c.Name,
				"datatype", string(c.Datatype),
				"type", string(ref),
			)
		}

		f := jsval.NewMap().Set("type", ref)
		if c.PrimaryKey {
			f.Set("primaryKey", jsval.Bool(true))
		}
		if c.AutoIncrement {
			f.Set("autoIncrement", jsval.Bool(true))
		} else if c.NotNull {
			f.Set("allowNull", jsval.Bool(false))
		}

		// references is replaced by every foreign key; a rule is only
		// replaced by a later key that sets it.
		for _, fk := range c.ForeignKeys {
			f.Set("references", jsval.NewMap().
				Set("model", jsval.Str(fk.RefModel)).
				Set("key", jsval.Str(strings.Join(fk.RefColumns, ";"))))
			if fk.OnUpdate != "" {
				f.Set("onUpdate", jsval.Str(strings.ToUpper(fk.OnUpdate)))
			}
			if fk.OnDelete != "" {
				f.Set("onDelete", jsval.Str(strings.ToUpper(fk.OnDelete)))
			}
		}

		fields.Set(c.Name, f)
	}

	return fields
}

// BuildIndexes returns the plain and unique indexes of t as a list, or Null
// when there are none. Primary, fulltext and spatial indexes are skipped.
func (b *Builder) BuildIndexes(t *schema.Table) jsval.Node {
	list := jsval.NewList()

	for _, idx := range t.Indexes {
		if !idx.IsIndex() && !idx.IsUnique() {
			continue
		}
		entry := jsval.NewMap().
			Set("name", jsval.Str(idx.Name)).
			Set("fields", jsval.Strings(idx.Columns...)).
			Set("unique", jsval.Null{})
		if idx.IsUnique() {
			entry.Set("unique", jsval.Bool(true))
		}
		list.Append(entry)
	}

	if list.Len() == 0 {
		return jsval.Null{}
	}
	return list
}

// BuildOptions returns the Model.init options: sequelize, modelName,
// tableName and indexes first, then the table properties (defaults merged
// with common). Keys set from the table are never overridden.
func (b *Builder) BuildOptions(t *schema.Table, common *jsval.Map) *jsval.Map {
	opts := jsval.NewMap().
		Set("sequelize", jsval.Raw("sequelize")).
		Set("modelName", jsval.Str(t.Model)).
		Set("tableName", jsval.Str(t.Name)).
		Set("indexes", b.BuildIndexes(t))

	props := TableProps(common)
	for _, k := range props.Keys() {
		v, _ := props.Get(k)
		opts.SetDefault(k, v)
	}

	return opts
}

// DefaultTableProps returns the properties every model gets unless the
// common properties override them.
func DefaultTableProps() *jsval.Map {
	return jsval.NewMap().
		Set("timestamps", jsval.Bool(false)).
		Set("underscored", jsval.Bool(true)).
		Set("syncOnAssociation", jsval.Bool(false))
}

// TableProps merges common over the defaults.
func TableProps(common *jsval.Map) *jsval.Map {
	return DefaultTableProps().Merge(common)
}
