// Package config holds the storage configuration consumed by the currency
// service: which backend to use and how to reach it.
package config

import (
	"errors"
	"fmt"
	"strings"
)

type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMySQL  Backend = "mysql"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

func ParseBackend(raw string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(raw))) {
	case BackendSQLite:
		return BackendSQLite, nil
	case BackendMySQL:
		return BackendMySQL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, raw)
	}
}

type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND"`
	SQLite  SQLiteConfig
	MySQL   MySQLConfig
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH,optional"`
}

// DSN enables the pragmas the ledger depends on: immediate write
// transactions (lock at BEGIN, not at first write), a busy timeout so
// writers queue instead of failing instantly, and foreign keys.
func (c SQLiteConfig) DSN() string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", c.Path)
}

type MySQLConfig struct {
	Host     string `env:"MYSQL_HOST,optional"`
	Port     uint16 `env:"MYSQL_PORT,optional"`
	User     string `env:"MYSQL_USER,optional"`
	Password string `env:"MYSQL_PASSWORD,optional"`
	DBName   string `env:"MYSQL_DATABASE,optional"`
}

// DSN builds a go-sql-driver DSN. parseTime is required so TIMESTAMP
// columns scan into time.Time.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.User, c.Password, c.Host, c.Port, c.DBName,
	)
}
