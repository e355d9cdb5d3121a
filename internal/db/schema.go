package db

import (
	"context"
	"database/sql"
)

// RequiredTables is what the application expects after migrations.
var RequiredTables = []string{
	"number_sequences",
	"offers",
	"bookings",
	"drivers",
	"driver_documents",
	"employees",
	"vehicles",
	"trips",
	"trip_departures",
	"ticket_bookings",
	"association_agreements",
	"bus_price_profiles",
	"users",
}

// HasTable checks information_schema in the current database/schema.
func (c *Conn) HasTable(ctx context.Context, table string) bool {
	q := `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ? LIMIT 1`
	if c.Dialect == MySQL {
		q = `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ? LIMIT 1`
	}
	var name sql.NullString
	if err := c.QueryRowContext(ctx, q, table).Scan(&name); err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// MissingTables lists required tables that are absent, used by /api/db-check
// and at startup.
func (c *Conn) MissingTables(ctx context.Context) []string {
	missing := []string{}
	for _, t := range RequiredTables {
		if !c.HasTable(ctx, t) {
			missing = append(missing, t)
		}
	}
	return missing
}
