// Package migrations holds the Go migrations for the widget session store.
// They are written in Go because the table layout differs per database.
package migrations

var dialect string

// SetDialect selects the SQL dialect ("sqlite3", "postgres" or "mysql").
// Must be called before goose.Up.
func SetDialect(d string) {
	dialect = d
}
