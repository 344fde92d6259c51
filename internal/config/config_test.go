package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "local", cfg.Upload.Provider)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Address())
}

func TestUploadTempDir(t *testing.T) {
	var u UploadConfig
	assert.Equal(t, filepath.Join(os.TempDir(), "inventory-uploads"), u.TempDir())

	u.TmpDir = "/var/lib/inventory/staging"
	assert.Equal(t, "/var/lib/inventory/staging", u.TempDir())
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", DefaultJWTSecret)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateCloudinaryRequiresCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("UPLOAD_PROVIDER", "cloudinary")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLOUDINARY")
}

func TestDSNs(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "inv", User: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/inv?sslmode=disable", d.PostgresDSN())

	d.Port = 3306
	assert.Equal(t, "u:p@tcp(db:3306)/inv?parseTime=true&loc=UTC", d.MySQLDSN())
}
