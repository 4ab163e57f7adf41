// Package config loads seqgen.yaml.
//
// Values are layered with the precedence
//
//	command-line flags > SEQGEN_* environment > config file > defaults
//
// and ${VAR} references in credentials are expanded from the environment.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/emit"
	"github.com/hlop3z/seqgen/internal/manifest"
	"github.com/hlop3z/seqgen/internal/writer"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "seqgen.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SEQGEN_"

// Config is the full seqgen configuration.
type Config struct {
	Indentation     int      `yaml:"indentation"`
	UseTabs         bool     `yaml:"use_tabs"`
	AddComment      bool     `yaml:"add_comment"`
	SkipM2M         bool     `yaml:"skip_m2m_tables"`
	CommonTableProp string   `yaml:"common_table_prop"`
	Filename        string   `yaml:"filename"`
	OutputDir       string   `yaml:"output_dir"`
	ExternalTables  []string `yaml:"external_tables"`
	Jobs            int      `yaml:"jobs"`

	// Schema is a YAML/JSON schema document. When empty, DatabaseURL is
	// introspected instead.
	Schema      string `yaml:"schema"`
	DatabaseURL string `yaml:"database_url"`
	Dialect     string `yaml:"dialect"`

	ObjectStore writer.ObjectStoreConfig `yaml:"object_store"`

	Verify   bool   `yaml:"verify"`
	Manifest string `yaml:"manifest"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Indentation: 4,
		AddComment:  true,
		SkipM2M:     true,
		Filename:    emit.DefaultFilenamePattern,
		OutputDir:   "./models",
		Jobs:        1,
		Manifest:    manifest.DefaultPath,
	}
}

// Load reads path over the defaults. A missing file is an error unless
// optional is set, in which case the defaults are returned.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, alerr.Wrap(alerr.ErrConfigRead, err, "failed to read config file").
			WithFile(path, 0)
	}

	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, alerr.Wrap(alerr.ErrConfigRead, err, "failed to parse config file").
			WithFile(path, 0).
			WithHelp("check the YAML syntax and field names")
	}
	cfg.expand(os.Getenv)
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expand resolves ${VAR} references in fields that usually carry secrets.
func (c *Config) expand(getenv func(string) string) {
	c.DatabaseURL = os.Expand(c.DatabaseURL, getenv)
	c.ObjectStore.Endpoint = os.Expand(c.ObjectStore.Endpoint, getenv)
	c.ObjectStore.AccessKey = os.Expand(c.ObjectStore.AccessKey, getenv)
	c.ObjectStore.SecretKey = os.Expand(c.ObjectStore.SecretKey, getenv)
}

// IndentUnit returns one indentation unit as configured.
func (c *Config) IndentUnit() string {
	return writer.IndentUnit(c.Indentation, c.UseTabs)
}

// Validate checks value ranges and the file name pattern.
func (c *Config) Validate() error {
	if c.Indentation < 0 {
		return alerr.Newf(alerr.ErrConfigInvalid, "indentation must not be negative, got %d", c.Indentation).
			With("field", "indentation")
	}
	if c.Jobs < 0 {
		return alerr.Newf(alerr.ErrConfigInvalid, "jobs must not be negative, got %d", c.Jobs).
			With("field", "jobs")
	}
	if err := emit.ValidatePattern(c.Filename); err != nil {
		return err
	}
	if c.ObjectStore.Endpoint != "" && c.ObjectStore.Bucket == "" {
		return alerr.New(alerr.ErrConfigInvalid, "object_store.bucket is required when an endpoint is set").
			With("field", "object_store.bucket")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Environment
// -----------------------------------------------------------------------------

// envBindings maps each variable suffix to the field it sets.
func (c *Config) envBindings() map[string]func(string) error {
	str := func(p *string) func(string) error {
		return func(v string) error { *p = v; return nil }
	}
	num := func(p *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*p = n
			return nil
		}
	}
	flag := func(p *bool) func(string) error {
		return func(v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*p = b
			return nil
		}
	}

	return map[string]func(string) error{
		"INDENTATION":       num(&c.Indentation),
		"USE_TABS":          flag(&c.UseTabs),
		"ADD_COMMENT":       flag(&c.AddComment),
		"SKIP_M2M_TABLES":   flag(&c.SkipM2M),
		"COMMON_TABLE_PROP": str(&c.CommonTableProp),
		"FILENAME":          str(&c.Filename),
		"OUTPUT_DIR":        str(&c.OutputDir),
		"EXTERNAL_TABLES": func(v string) error {
			c.ExternalTables = splitList(v)
			return nil
		},
		"JOBS":             num(&c.Jobs),
		"SCHEMA":           str(&c.Schema),
		"DATABASE_URL":     str(&c.DatabaseURL),
		"DIALECT":          str(&c.Dialect),
		"VERIFY":           flag(&c.Verify),
		"MANIFEST":         str(&c.Manifest),
		"S3_ENDPOINT":      str(&c.ObjectStore.Endpoint),
		"S3_BUCKET":        str(&c.ObjectStore.Bucket),
		"S3_PREFIX":        str(&c.ObjectStore.Prefix),
		"S3_REGION":        str(&c.ObjectStore.Region),
		"S3_ACCESS_KEY":    str(&c.ObjectStore.AccessKey),
		"S3_SECRET_KEY":    str(&c.ObjectStore.SecretKey),
		"S3_USE_SSL":       flag(&c.ObjectStore.UseSSL),
	}
}

// ApplyEnv overrides fields from SEQGEN_* variables found by lookup.
// DATABASE_URL is a fallback used only when no database_url is configured
// and SEQGEN_DATABASE_URL is unset.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DATABASE_URL"); ok && v != "" && c.DatabaseURL == "" {
		c.DatabaseURL = v
	}
	for suffix, set := range c.envBindings() {
		name := EnvPrefix + suffix
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(v); err != nil {
			return alerr.Wrap(alerr.ErrConfigInvalid, err, "invalid environment value").
				With("variable", name).
				With("value", v)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Flags
// -----------------------------------------------------------------------------

// RegisterFlags defines the generation flags on fs. Defaults mirror Default
// so help output shows them; only flags the user set override the config.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("schema", "s", "", "schema document (YAML or JSON)")
	fs.StringP("database-url", "d", "", "database to introspect instead of a schema file")
	fs.String("dialect", "", "database dialect (mysql, postgres, sqlite)")
	fs.StringP("output", "o", d.OutputDir, "output directory")
	fs.IntP("indent", "i", d.Indentation, "indentation width")
	fs.Bool("tabs", d.UseTabs, "indent with tabs")
	fs.Bool("comment", d.AddComment, "write a banner comment in every file")
	fs.Bool("skip-m2m", d.SkipM2M, "skip junction tables")
	fs.String("common-props", "", "JSON file of table options shared by every model")
	fs.String("filename", d.Filename, "file name pattern (%entity%, %table%, %extension%)")
	fs.StringSlice("external", nil, "tables defined elsewhere (repeatable)")
	fs.IntP("jobs", "j", d.Jobs, "tables generated in parallel")
	fs.Bool("verify", d.Verify, "evaluate every generated module after writing")
	fs.String("manifest", d.Manifest, "manifest file path")
}

// ApplyFlags copies every changed flag registered by RegisterFlags into c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	str := func(name string, p *string) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, err := fs.GetString(name)
			keep(err)
			*p = v
		}
	}
	num := func(name string, p *int) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, err := fs.GetInt(name)
			keep(err)
			*p = v
		}
	}
	flag := func(name string, p *bool) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, err := fs.GetBool(name)
			keep(err)
			*p = v
		}
	}

	str("schema", &c.Schema)
	str("database-url", &c.DatabaseURL)
	str("dialect", &c.Dialect)
	str("output", &c.OutputDir)
	num("indent", &c.Indentation)
	flag("tabs", &c.UseTabs)
	flag("comment", &c.AddComment)
	flag("skip-m2m", &c.SkipM2M)
	str("common-props", &c.CommonTableProp)
	str("filename", &c.Filename)
	if f := fs.Lookup("external"); f != nil && f.Changed {
		v, err := fs.GetStringSlice("external")
		keep(err)
		c.ExternalTables = v
	}
	num("jobs", &c.Jobs)
	flag("verify", &c.Verify)
	str("manifest", &c.Manifest)

	if firstErr != nil {
		return alerr.Wrap(alerr.ErrConfigInvalid, firstErr, "invalid flag value")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
