package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "an error was not expected when opening a stub database connection")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), GormConfig())
	require.NoError(t, err, "an error was not expected when opening gorm database")

	return gormDB, mock
}

func TestNewDBReplacesSingleton(t *testing.T) {
	gormDB, _ := NewMockDB(t)
	NewDB(gormDB)
	defer NewDB(nil)

	assert.Same(t, gormDB, GetDb())
	assert.Equal(t, "postgres", GetDb().Name())
}

func TestGormConfig(t *testing.T) {
	cfg := GormConfig()
	assert.True(t, cfg.SkipDefaultTransaction)
	assert.True(t, cfg.TranslateError)
}
