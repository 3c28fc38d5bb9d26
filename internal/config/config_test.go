package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "0.16", cfg.TaxRate.String())
	assert.Equal(t, 1000, cfg.CheckoutDelayMS)
	generating, waiting, approval := cfg.QRTimings()
	assert.Equal(t, int64(800), generating.Milliseconds())
	assert.Equal(t, int64(5000), waiting.Milliseconds())
	assert.Equal(t, int64(1000), approval.Milliseconds())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TAX_RATE", "0.08")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, "0.08", cfg.TaxRate.String())
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidTaxRate(t *testing.T) {
	for _, raw := range []string{"abc", "-0.1", "1.5"} {
		t.Setenv("TAX_RATE", raw)
		_, err := Load()
		assert.Error(t, err, "TAX_RATE=%s", raw)
	}
}
