package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"gross from net", []string{"tax", "gross", "1000"}, []string{"net   ₺10.00", "vat   ₺1.80 (18%)", "gross ₺11.80"}},
		{"net from gross", []string{"tax", "net", "1180"}, []string{"net   ₺10.00", "gross ₺11.80"}},
		{"custom rate", []string{"tax", "net", "1080", "--vat-bps", "800"}, []string{"net   ₺10.00", "(8%)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCmd(testConfig(), slog.Default())
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestTaxCommandRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad direction", []string{"tax", "sideways", "100"}},
		{"bad amount", []string{"tax", "net", "ten"}},
		{"negative rate", []string{"tax", "net", "100", "--vat-bps", "-5"}},
		{"missing amount", []string{"tax", "net"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd(testConfig(), slog.Default())
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			assert.Error(t, cmd.Execute())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel("ERROR"))
	assert.Equal(t, slog.LevelWarn, parseLevel("loud"))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BISTRO_CURRENCY", "USD")
	t.Setenv("BISTRO_TENANT", "cafe-9")
	t.Setenv("BISTRO_VAT_BPS", "800")
	t.Setenv("BISTRO_LOG_LEVEL", "info")

	cfg := loadConfig()
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, "cafe-9", cfg.Tenant)
	assert.Equal(t, int64(800), cfg.VATBasisPoints)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}
