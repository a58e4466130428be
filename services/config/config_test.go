package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sps30-go/drivers/sps30"
	"sps30-go/errcode"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sps30.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// no sps30.yaml here
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.I2C.Bus)
	assert.Equal(t, uint16(sps30.Address), cfg.I2C.Address)
	assert.Equal(t, "float32", cfg.Sensor.Width)
	assert.Equal(t, time.Second, cfg.Sensor.PollInterval)
	assert.Equal(t, int64(-1), cfg.Sensor.AutoCleanInterval)
	assert.Equal(t, 60, cfg.Sensor.StatusEvery)
	assert.Equal(t, ":9630", cfg.Metrics.Addr)

	drv, err := cfg.Driver()
	require.NoError(t, err)
	assert.Equal(t, sps30.Float32, drv.Width)
	assert.Equal(t, sps30.Idle, drv.InitialState)
	assert.Equal(t, 20*time.Millisecond, drv.ReadDelay)
	assert.Equal(t, byte(0x92), drv.Checksum(0xBE, 0xEF))
}

func TestLoad_FileAndEnv(t *testing.T) {
	p := writeFile(t, `
i2c:
  bus: 3
  address: 0x69
sensor:
  width: uint16
  checksum: sum
  pollInterval: 250ms
  autoCleanInterval: 3600
  statusEvery: -1
  initialState: sleeping
logging:
  level: debug
`)
	t.Setenv("SPS30_I2C_BUS", "5")
	t.Setenv("SPS30_METRICS_ENABLE", "false")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.I2C.Bus)
	assert.Equal(t, 250*time.Millisecond, cfg.Sensor.PollInterval)
	assert.Equal(t, int64(3600), cfg.Sensor.AutoCleanInterval)
	assert.Equal(t, -1, cfg.Sensor.StatusEvery)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enable)

	drv, err := cfg.Driver()
	require.NoError(t, err)
	assert.Equal(t, sps30.UInt16, drv.Width)
	assert.Equal(t, sps30.Sleeping, drv.InitialState)
	assert.Equal(t, byte(0xFF), drv.Checksum(0x00, 0x00))
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"width":    "sensor:\n  width: int8\n",
		"checksum": "sensor:\n  checksum: md5\n",
		"address":  "i2c:\n  address: 0x80\n",
		"poll":     "sensor:\n  pollInterval: 0s\n",
		"state":    "sensor:\n  initialState: dormant\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			require.Error(t, err)
			assert.Equal(t, errcode.InvalidConfig, errcode.Of(err))
		})
	}
}
