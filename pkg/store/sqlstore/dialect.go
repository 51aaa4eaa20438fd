package sqlstore

import (
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string
	// PayloadType is the column type used for JSON payloads.
	PayloadType string
	// Numbered placeholders ($1, $2) instead of "?".
	Numbered bool
}

var (
	SQLite   = Dialect{Driver: "sqlite", PayloadType: "TEXT"}
	Postgres = Dialect{Driver: "pgx", PayloadType: "JSONB", Numbered: true}
)

// DialectFor returns the dialect registered under driver.
func DialectFor(driver string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return SQLite, true
	case "pgx", "postgres", "postgresql":
		return Postgres, true
	default:
		return Dialect{}, false
	}
}

// Rebind rewrites "?" placeholders for dialects that number them.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS augment_records (
		id TEXT PRIMARY KEY,
		container TEXT NOT NULL DEFAULT '',
		payload ` + d.PayloadType + ` NOT NULL
	)`,
		`CREATE TABLE IF NOT EXISTS augment_containers (
		id TEXT PRIMARY KEY,
		mount TEXT NOT NULL DEFAULT '',
		payload ` + d.PayloadType + ` NOT NULL
	)`,
		`CREATE INDEX IF NOT EXISTS augment_containers_mount ON augment_containers (mount)`,
		`CREATE TABLE IF NOT EXISTS augment_users (
		id TEXT PRIMARY KEY,
		payload ` + d.PayloadType + ` NOT NULL
	)`,
	}
}
