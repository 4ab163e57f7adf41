package introspect

import (
	_ "github.com/lib/pq"  // PostgreSQL driver, registered as "postgres"
	_ "modernc.org/sqlite" // SQLite driver, registered as "sqlite"
)
