package schema

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hlop3z/seqgen/internal/alerr"
)

// document is the on-disk schema layout. JSON documents decode the same way.
type document struct {
	Tables []tableDoc `yaml:"tables"`
}

type tableDoc struct {
	Name        string          `yaml:"name"`
	Model       string          `yaml:"model"`
	Comment     string          `yaml:"comment"`
	External    bool            `yaml:"external"`
	ManyToMany  bool            `yaml:"many_to_many"`
	Columns     []columnDoc     `yaml:"columns"`
	Indexes     []indexDoc      `yaml:"indexes"`
	ForeignKeys []foreignKeyDoc `yaml:"foreign_keys"`
}

type columnDoc struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Length        int    `yaml:"length"`
	Precision     int    `yaml:"precision"`
	Scale         int    `yaml:"scale"`
	PrimaryKey    bool   `yaml:"primary_key"`
	AutoIncrement bool   `yaml:"auto_increment"`
	NotNull       bool   `yaml:"not_null"`
}

type indexDoc struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Kind    string   `yaml:"kind"`
}

type foreignKeyDoc struct {
	Name       string   `yaml:"name"`
	Columns    []string `yaml:"columns"`
	References struct {
		Table   string   `yaml:"table"`
		Columns []string `yaml:"columns"`
	} `yaml:"references"`
	OnUpdate string `yaml:"on_update"`
	OnDelete string `yaml:"on_delete"`
}

// LoadFile reads and finalizes a schema document from path.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, alerr.Wrap(alerr.ErrSchemaNotFound, err, "schema file not found").WithFile(path, 0)
		}
		return nil, alerr.Wrap(alerr.ErrSchemaInvalid, err, "failed to read schema file").WithFile(path, 0)
	}

	s, err := Load(bytes.NewReader(data))
	if err != nil {
		var ae *alerr.Error
		if errors.As(err, &ae) {
			ae.WithFile(path, 0)
		}
		return nil, err
	}
	return s, nil
}

// Load decodes a YAML or JSON schema document and finalizes it.
func Load(r io.Reader) (*Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, alerr.New(alerr.ErrSchemaInvalid, "schema document is empty")
		}
		return nil, alerr.Wrap(alerr.ErrSchemaInvalid, err, "failed to parse schema document")
	}

	s := &Schema{Tables: make([]*Table, 0, len(doc.Tables))}
	for _, td := range doc.Tables {
		t, err := td.toTable()
		if err != nil {
			return nil, err
		}
		s.Tables = append(s.Tables, t)
	}

	if err := s.Finalize(); err != nil {
		return nil, err
	}

	for i, td := range doc.Tables {
		if td.ManyToMany {
			s.Tables[i].ManyToMany = true
		}
	}
	return s, nil
}

func (td tableDoc) toTable() (*Table, error) {
	t := &Table{
		Name:     td.Name,
		Model:    td.Model,
		Comment:  td.Comment,
		External: td.External,
	}

	for _, cd := range td.Columns {
		ct, err := ParseColumnType(cd.Type)
		if err != nil {
			var ae *alerr.Error
			if errors.As(err, &ae) {
				ae.WithTable(td.Name).WithColumn(cd.Name)
			}
			return nil, err
		}
		col := &Column{
			Name:          cd.Name,
			Datatype:      ct.Datatype,
			Length:        ct.Length,
			Precision:     ct.Precision,
			Scale:         ct.Scale,
			PrimaryKey:    cd.PrimaryKey,
			AutoIncrement: cd.AutoIncrement,
			NotNull:       cd.NotNull,
		}
		if cd.Length > 0 {
			col.Length = cd.Length
		}
		if cd.Precision > 0 {
			col.Precision = cd.Precision
		}
		if cd.Scale > 0 {
			col.Scale = cd.Scale
		}
		t.Columns = append(t.Columns, col)
	}

	for _, id := range td.Indexes {
		kind, ok := ParseIndexKind(id.Kind)
		if !ok {
			return nil, alerr.Newf(alerr.ErrSchemaInvalid, "unknown index kind %q", id.Kind).
				WithTable(td.Name).
				With("index", id.Name).
				WithHelp("use one of: index, unique, primary, fulltext, spatial")
		}
		t.Indexes = append(t.Indexes, &Index{Name: id.Name, Columns: id.Columns, Kind: kind})
	}

	for _, fd := range td.ForeignKeys {
		if fd.References.Table == "" {
			return nil, alerr.New(alerr.ErrSchemaInvalid, "foreign key must reference a table").
				WithTable(td.Name).
				With("foreign_key", fd.Name)
		}
		t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{
			Name:       fd.Name,
			Columns:    fd.Columns,
			RefTable:   fd.References.Table,
			RefColumns: fd.References.Columns,
			OnUpdate:   fd.OnUpdate,
			OnDelete:   fd.OnDelete,
		})
	}

	return t, nil
}
