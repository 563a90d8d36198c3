package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile_DefaultsWhenMissing(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	req.NoError(err)
	req.Equal(8080, cfg.Port)
	req.Equal(5*time.Minute, cfg.SweepInterval)
	req.Equal(30*time.Minute, cfg.SessionIdleTimeout)
	req.Equal(64, cfg.SendBuffer)
	req.Equal(float64(50), cfg.RateLimit)
	req.Equal(100, cfg.RateBurst)
	req.Equal(54*time.Second, cfg.PingPeriod)
}

func TestLoadFile_FileAndEnvOverride(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "config.test.yaml")
	req.NoError(os.WriteFile(path, []byte("port: 9090\nsession_idle_timeout: 10m\n"), 0o600))
	t.Setenv("DESK_SEND_BUFFER", "8")

	cfg, err := LoadFile(path)
	req.NoError(err)
	req.Equal(9090, cfg.Port)
	req.Equal(10*time.Minute, cfg.SessionIdleTimeout)
	req.Equal(8, cfg.SendBuffer)
}

func TestLoadFile_RejectsNonPositiveSweepInterval(t *testing.T) {
	req := require.New(t)
	t.Setenv("DESK_SWEEP_INTERVAL", "0s")

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	req.ErrorContains(err, "sweep_interval")
}
