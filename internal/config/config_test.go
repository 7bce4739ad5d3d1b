package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoundFlagSet() (*pflag.FlagSet, *viper.Viper) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	v := viper.New()
	BindFlags(fs, v)
	return fs, v
}

func TestLoadDefaults(t *testing.T) {
	_, v := newBoundFlagSet()

	cfg, err := Load(v, "in", "out")
	require.NoError(t, err)

	assert.Equal(t, OCRAuto, cfg.WithOCR)
	assert.Equal(t, 300, cfg.OCRDPI)
	assert.True(t, cfg.PerDocDir)
	assert.False(t, cfg.Artifacts)
	assert.Equal(t, DispatchLocal, cfg.Dispatch)
}

func TestValidateRejectsBadWithOCR(t *testing.T) {
	cfg := &Config{WithOCR: "sometimes", Dispatch: DispatchLocal, OCRDPI: 300}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsLowDPI(t *testing.T) {
	cfg := &Config{WithOCR: OCRAuto, Dispatch: DispatchLocal, OCRDPI: 10}
	assert.Error(t, cfg.Validate())
}

func TestValidateAsynqRequiresRedisURL(t *testing.T) {
	cfg := &Config{WithOCR: OCRAuto, Dispatch: DispatchAsynq, OCRDPI: 300, RedisURL: ""}
	assert.Error(t, cfg.Validate())

	cfg.RedisURL = "redis://127.0.0.1:6379"
	assert.NoError(t, cfg.Validate())
}

func TestValidateLedgerRequiresDatabaseURL(t *testing.T) {
	cfg := &Config{WithOCR: OCRAuto, Dispatch: DispatchLocal, OCRDPI: 300, Ledger: true}
	assert.Error(t, cfg.Validate())

	cfg.DatabaseURL = "postgres://localhost/lawdocs"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeConcurrency(t *testing.T) {
	cfg := &Config{WithOCR: OCRAuto, Dispatch: DispatchLocal, OCRDPI: 300, Concurrency: -1}
	assert.Error(t, cfg.Validate())
}
