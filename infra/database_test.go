package infra_test

import (
	"testing"

	"github.com/amirasaad/spendsense/infra"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBConnection_SQLite(t *testing.T) {
	db, err := infra.NewDBConnection(&config.DB{Driver: "sqlite", Url: "file::memory:"}, "test")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close() //nolint:errcheck
	assert.NoError(t, sqlDB.Ping())
}

func TestNewDBConnection_Errors(t *testing.T) {
	_, err := infra.NewDBConnection(nil, "test")
	assert.Error(t, err)

	_, err = infra.NewDBConnection(&config.DB{Driver: "postgres"}, "test")
	assert.EqualError(t, err, "DATABASE_URL is not set")

	_, err = infra.NewDBConnection(&config.DB{Driver: "mysql", Url: "x"}, "test")
	assert.EqualError(t, err, `unsupported database driver "mysql"`)
}
