package seqgen

import (
	"log/slog"

	"github.com/hlop3z/seqgen/internal/emit"
)

// Config holds all configuration options for the Generator.
type Config struct {
	// Indent is one indentation unit, e.g. four spaces or a tab.
	// Default: four spaces
	Indent string

	// SkipM2M skips pure junction tables.
	// Default: true
	SkipM2M bool

	// AddComment writes a generator banner at the top of every file.
	// Default: true
	AddComment bool

	// FilenamePattern names output files. See emit.ExpandPattern.
	// Default: %entity%.%extension%
	FilenamePattern string

	// CommonPropsPath is a JSON file of table options merged into every
	// model's options. An unusable file is ignored.
	CommonPropsPath string

	// ExternalTables are defined elsewhere and never emitted.
	ExternalTables []string

	// Jobs bounds how many tables are emitted concurrently.
	// Default: 1
	Jobs int

	// Verify evaluates every module after it is written and checks that it
	// reproduces the built definition.
	Verify bool

	// Version and Source appear in the banner.
	Version string
	Source  string

	// Logger receives progress and warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring the Generator.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		Indent:          "    ",
		SkipM2M:         true,
		AddComment:      true,
		FilenamePattern: emit.DefaultFilenamePattern,
		Jobs:            1,
	}
}

// WithIndent sets the indentation unit.
func WithIndent(unit string) Option {
	return func(c *Config) {
		c.Indent = unit
	}
}

// WithSkipM2M enables or disables skipping of junction tables.
func WithSkipM2M(skip bool) Option {
	return func(c *Config) {
		c.SkipM2M = skip
	}
}

// WithComment enables or disables the banner comment.
func WithComment(add bool) Option {
	return func(c *Config) {
		c.AddComment = add
	}
}

// WithFilenamePattern sets the output file name pattern.
func WithFilenamePattern(pattern string) Option {
	return func(c *Config) {
		c.FilenamePattern = pattern
	}
}

// WithCommonProps sets the common table properties file.
func WithCommonProps(path string) Option {
	return func(c *Config) {
		c.CommonPropsPath = path
	}
}

// WithExternalTables marks tables as defined elsewhere.
func WithExternalTables(names ...string) Option {
	return func(c *Config) {
		c.ExternalTables = append(c.ExternalTables, names...)
	}
}

// WithJobs sets the number of tables emitted in parallel. Values below one
// mean one.
func WithJobs(n int) Option {
	return func(c *Config) {
		c.Jobs = n
	}
}

// WithVerify enables evaluation of every generated module.
func WithVerify(verify bool) Option {
	return func(c *Config) {
		c.Verify = verify
	}
}

// WithBanner sets the version and source shown in the banner.
func WithBanner(version, source string) Option {
	return func(c *Config) {
		c.Version = version
		c.Source = source
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
