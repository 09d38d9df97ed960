// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "1314", cfg.StaffSignupCode)
	assert.Equal(t, "covers", cfg.CoverDir)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.NotEmpty(t, cfg.DatabaseURL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TOKEN_TTL", "45m")
	t.Setenv("STAFF_SIGNUP_CODE", "2718")

	cfg := Load()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 45*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "2718", cfg.StaffSignupCode)
}

func TestGetDuration(t *testing.T) {
	t.Setenv("D_GO", "90s")
	assert.Equal(t, 90*time.Second, getDuration("D_GO", time.Hour))

	t.Setenv("D_SECS", "300")
	assert.Equal(t, 5*time.Minute, getDuration("D_SECS", time.Hour))

	t.Setenv("D_BAD", "soon")
	assert.Equal(t, time.Hour, getDuration("D_BAD", time.Hour))

	assert.Equal(t, time.Minute, getDuration("D_UNSET", time.Minute))
}
