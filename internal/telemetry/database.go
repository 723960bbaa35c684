package telemetry

import (
	"database/sql"
	"strings"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenDB opens an instrumented database handle.
func OpenDB(driverName, dsn string) (*sql.DB, error) {
	return otelsql.Open(driverName, dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
}

// OpenDBForSchema opens an instrumented handle pinned to one schema. The
// search_path rides on the connection string so every pooled connection gets
// it; a one-shot SET search_path would only configure the connection it
// happens to run on.
func OpenDBForSchema(driverName, dsn, schema string) (*sql.DB, error) {
	return OpenDB(driverName, DSNWithSearchPath(dsn, schema))
}

// DSNWithSearchPath appends a search_path startup option to a lib/pq
// connection string, in either URL or keyword/value form.
func DSNWithSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "options=-csearch_path%3D" + schema
	}
	return dsn + " options=-csearch_path=" + schema
}
