package snowflake

import (
	"fmt"
	"strings"
)

// Config holds the Snowflake connection settings for the activity warehouse.
type Config struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
}

// DSN builds the gosnowflake data source name.
// Format: user:password@account/database/schema?warehouse=xxx
func (c Config) DSN() string {
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s", c.User, c.Password, c.Account, c.Database, c.Schema)
	if c.Warehouse != "" {
		dsn += "?warehouse=" + c.Warehouse
	}
	return dsn
}

// ParseConnectionString parses a semicolon-delimited connection string like
// "ACCOUNT=x;USER=y;PASSWORD=z;DB=database.schema;WAREHOUSE=w".
// Keys are matched case-insensitively.
func ParseConnectionString(connStr string) Config {
	parts := make(map[string]string)
	for _, kv := range strings.Split(connStr, ";") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		parts[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	// Parse database.schema from DB field if present
	database, schema, _ := strings.Cut(parts["DB"], ".")

	return Config{
		Account:   parts["ACCOUNT"],
		User:      parts["USER"],
		Password:  parts["PASSWORD"],
		Database:  database,
		Schema:    schema,
		Warehouse: parts["WAREHOUSE"],
	}
}
