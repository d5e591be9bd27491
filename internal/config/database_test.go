package config

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestInitDatabaseDisabled(t *testing.T) {
	db, err := InitDatabase(&Config{Database: DatabaseConfig{Enabled: false, Host: "unreachable.invalid"}})

	assert.ErrorIs(t, err, ErrDatabaseDisabled)
	assert.Nil(t, db)
}

func TestConfigurePool(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	configurePool(sqlDB, DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: time.Minute})
	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)

	// Zero values keep the driver defaults.
	configurePool(sqlDB, DatabaseConfig{})
	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: "5433", User: "cf", Password: "secret", DBName: "careerforge", SSLMode: "require",
	}}

	assert.Equal(t, "host=db port=5433 user=cf password=secret dbname=careerforge sslmode=require", cfg.GetDatabaseDSN())
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("development"))
	assert.Equal(t, logger.Warn, gormLogLevel("production"))
}
