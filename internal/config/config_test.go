package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(8080, cfg.Port)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(int64(8<<20), cfg.ReadLimit)
	req.Equal(5<<20, cfg.MaxAttachmentBytes)
	req.Equal(time.Minute, cfg.JoinRateInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("CHATJET_PORT", "9090")
	t.Setenv("CHATJET_JOIN_RATE_INTERVAL", "30s")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(9090, cfg.Port)
	req.Equal(30*time.Second, cfg.JoinRateInterval)
}

func TestLoadClient_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := LoadClient()
	req.NoError(err)
	req.Equal(2*time.Minute, cfg.SessionTimeout)
	req.Equal(time.Second, cfg.ActivityDebounce)
	req.Equal(50, cfg.HistoryLimit)
}

func TestParseLevel(t *testing.T) {
	req := require.New(t)
	req.Equal(zerolog.DebugLevel, ParseLevel("DEBUG"))
	req.Equal(zerolog.InfoLevel, ParseLevel(""))
	req.Equal(zerolog.InfoLevel, ParseLevel("loud"))
}
