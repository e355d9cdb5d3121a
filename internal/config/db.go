package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Supported values for DB_DRIVER.
const (
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

// DBConfig describes the records store. DatabaseURL wins over the discrete
// fields; DirectURL is used for migrations (Supabase pooler URLs cannot run DDL
// through PgBouncer in transaction mode).
type DBConfig struct {
	Driver      string
	DatabaseURL string
	DirectURL   string

	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func loadDBConfig() DBConfig {
	driver := strings.ToLower(envOr("DB_DRIVER", DriverPostgres))
	if driver == "postgres" || driver == "postgresql" {
		driver = DriverPostgres
	}
	defPort := "5432"
	if driver == DriverMySQL {
		defPort = "3306"
	}
	return DBConfig{
		Driver:          driver,
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DirectURL:       strings.TrimSpace(os.Getenv("DIRECT_URL")),
		Host:            envOr("DB_HOST", "127.0.0.1"),
		Port:            envOr("DB_PORT", defPort),
		Name:            envOr("DB_NAME", "charter"),
		User:            envOr("DB_USER", "charter"),
		Password:        os.Getenv("DB_PASSWORD"),
		SSLMode:         envOr("DB_SSLMODE", "disable"),
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 10 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// RuntimeDSN is the connection string handed to sql.Open.
func (c DBConfig) RuntimeDSN() string {
	if c.DatabaseURL != "" {
		if c.Driver == DriverMySQL {
			return ensureMySQLParams(c.DatabaseURL)
		}
		return c.DatabaseURL
	}
	if c.Driver == DriverMySQL {
		return ensureMySQLParams(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.User, c.Password, c.Host, c.Port, c.Name))
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// MigrationURL is the URL golang-migrate expects for the configured driver.
func (c DBConfig) MigrationURL() string {
	if c.DirectURL != "" {
		return c.DirectURL
	}
	dsn := c.RuntimeDSN()
	if c.Driver == DriverMySQL {
		if !strings.Contains(dsn, "multiStatements=") {
			dsn += "&multiStatements=true"
		}
		return "mysql://" + dsn
	}
	return dsn
}

// MigrationsDir returns the per-dialect migration directory as a file:// URL.
func (c DBConfig) MigrationsDir(base string) string {
	if base == "" {
		base = "migrations"
	}
	dir := "postgres"
	if c.Driver == DriverMySQL {
		dir = "mysql"
	}
	return "file://" + strings.TrimRight(base, "/") + "/" + dir
}

func ensureMySQLParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	// clientFoundRows makes RowsAffected count matched rows, which the
	// not-found checks after UPDATE rely on.
	for _, p := range []string{"parseTime=true", "charset=utf8mb4", "loc=UTC", "clientFoundRows=true", "timeout=5s", "readTimeout=30s", "writeTimeout=30s"} {
		key := strings.SplitN(p, "=", 2)[0] + "="
		if strings.Contains(dsn, key) {
			continue
		}
		dsn += sep + p
		sep = "&"
	}
	return dsn
}
