package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ACQUISITION_TIMEOUT", "15s")
	t.Setenv("TESSERACT_LANG", "fas")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REQUIRE_AUTH", "false")
	t.Setenv("MAX_TEXT_BYTES", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.AcquisitionTimeout)
	assert.Equal(t, "fas", cfg.OCR.TesseractLang)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Auth.RequireAuth)
	assert.Equal(t, 512<<10, cfg.Pipeline.MaxTextBytes)
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresSecretWhenAuthEnabled(t *testing.T) {
	t.Setenv("REQUIRE_AUTH", "true")
	t.Setenv("JWT_SECRET", "")

	err := LoadConfig().Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
