package seqgen

import (
	"context"
	"log/slog"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/introspect"
	"github.com/hlop3z/seqgen/internal/schema"
)

// Source names where table metadata comes from. File wins when both are set.
type Source struct {
	// File is a YAML or JSON schema document.
	File string
	// DatabaseURL is a database to introspect.
	DatabaseURL string
	// Dialect, when set, must match the dialect detected from DatabaseURL.
	Dialect string
	Logger  *slog.Logger
}

// String describes the source for banners and logs. Credentials are never
// included.
func (s Source) String() string {
	if s.File != "" {
		return s.File
	}
	if s.DatabaseURL == "" {
		return ""
	}
	d, _, err := introspect.DetectDialect(s.DatabaseURL)
	if err != nil {
		return "database"
	}
	return string(d) + " database"
}

// LoadSchema reads and finalizes the schema described by src.
func LoadSchema(ctx context.Context, src Source) (*schema.Schema, error) {
	log := src.Logger
	if log == nil {
		log = slog.Default()
	}

	switch {
	case src.File != "":
		log.Debug("loading schema document", "path", src.File)
		return schema.LoadFile(src.File)
	case src.DatabaseURL != "":
		return introspectSchema(ctx, src, log)
	default:
		return nil, alerr.New(alerr.ErrConfigInvalid, "no schema source configured").
			WithHelp("set 'schema' to a schema file or 'database_url' to a database in seqgen.yaml")
	}
}

func introspectSchema(ctx context.Context, src Source, log *slog.Logger) (*schema.Schema, error) {
	detected, _, err := introspect.DetectDialect(src.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if src.Dialect != "" {
		want, err := introspect.ParseDialect(src.Dialect)
		if err != nil {
			return nil, err
		}
		if want != detected {
			return nil, alerr.Newf(alerr.ErrConfigInvalid, "dialect %q does not match the %s database URL", src.Dialect, detected).
				With("field", "dialect")
		}
	}

	db, d, err := introspect.Open(ctx, src.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	in, err := introspect.New(db, d)
	if err != nil {
		return nil, err
	}

	log.Debug("introspecting database", "dialect", string(d))
	s, err := in.IntrospectSchema(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("introspected database", "dialect", string(d), "tables", len(s.Tables))
	return s, nil
}
