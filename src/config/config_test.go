package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSupportedLanguagesPutsDefaultFirst(t *testing.T) {
	t.Setenv("DEFAULT_LANGUAGE", "ja")
	t.Setenv("SUPPORTED_LANGUAGES", "en, ja ,ko")

	assert.Equal(t, []string{"ja", "en", "ko"}, SupportedLanguages())
}

func TestRemoteCallTimeout(t *testing.T) {
	t.Setenv("REMOTE_CALL_TIMEOUT", "")
	assert.Equal(t, 10*time.Second, RemoteCallTimeout())

	t.Setenv("REMOTE_CALL_TIMEOUT", "3s")
	assert.Equal(t, 3*time.Second, RemoteCallTimeout())

	t.Setenv("REMOTE_CALL_TIMEOUT", "-1s")
	assert.Equal(t, 10*time.Second, RemoteCallTimeout())
}

func TestGetDSN(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_PORT", "5432")
	t.Setenv("DATABASE_USER", "hbs")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("DATABASE_NAME", "hbsdb")
	t.Setenv("DATABASE_SSLMODE", "disable")
	t.Setenv("DATABASE_TIMEZONE", "UTC")

	assert.Equal(t, "host=db user=hbs password=secret dbname=hbsdb port=5432 sslmode=disable TimeZone=UTC", GetDSN())
}
