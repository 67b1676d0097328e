package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "advisor.yaml")
	content := `
database:
  engine: postgres
  host: localhost
  port: 5432
  username: admin
  password: secret
  name: orders
validation:
  iterations: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Engine)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Validation.Iterations)
	// Defaults survive partial config.
	assert.Equal(t, 100*time.Millisecond, cfg.Validation.SettleDelay)
	assert.Equal(t, 7, cfg.Regression.WindowDays)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNormalizeEngine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PostgreSQL", "postgres"},
		{"pg", "postgres"},
		{"postgres", "postgres"},
		{"MariaDB", "mysql"},
		{"sqlite3", "sqlite"},
		{" MySQL ", "mysql"},
		{"oracle", "oracle"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEngine(tt.in), tt.in)
	}
}

func TestDriverAndDSN(t *testing.T) {
	tests := []struct {
		name       string
		db         Database
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{
			name:       "postgres parts",
			db:         Database{Engine: "postgres", Host: "db1", Port: 5432, Username: "u", Password: "p", Name: "orders"},
			wantDriver: "postgres",
			wantDSN:    "postgres://u:p@db1:5432/orders?sslmode=disable",
		},
		{
			name:       "mysql parts",
			db:         Database{Engine: "mysql", Host: "db2", Port: 3306, Username: "u", Password: "p", Name: "orders"},
			wantDriver: "mysql",
			wantDSN:    "u:p@tcp(db2:3306)/orders?parseTime=true",
		},
		{
			name:       "sqlite file",
			db:         Database{Engine: "sqlite", Name: "/tmp/test.db"},
			wantDriver: "sqlite3",
			wantDSN:    "file:/tmp/test.db",
		},
		{
			name:       "explicit DSN wins",
			db:         Database{Engine: "postgres", DSN: "postgres://x@y/z"},
			wantDriver: "postgres",
			wantDSN:    "postgres://x@y/z",
		},
		{
			name:    "sqlite without path",
			db:      Database{Engine: "sqlite"},
			wantErr: true,
		},
		{
			name:    "unsupported engine",
			db:      Database{Engine: "mssql"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := tt.db.DriverAndDSN()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}
