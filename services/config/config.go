// Package config loads host configuration for the SPS30 monitor.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sps30-go/drivers/sps30"
	"sps30-go/errcode"
)

// EnvPrefix prefixes environment overrides, e.g. SPS30_SENSOR_WIDTH.
const EnvPrefix = "SPS30"

// I2CConfig selects the bus and device address.
type I2CConfig struct {
	Bus     int    `mapstructure:"bus"`     // /dev/i2c-N
	Address uint16 `mapstructure:"address"` // 7-bit
}

// SensorConfig controls the driver and the measurement loop.
type SensorConfig struct {
	Width        string        `mapstructure:"width"`    // float32 | uint16
	Checksum     string        `mapstructure:"checksum"` // sum | crc8
	ReadDelay    time.Duration `mapstructure:"readDelay"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
	// AutoCleanInterval in seconds is written at start-up; negative leaves
	// the device setting alone and 0 disables automatic cleaning.
	AutoCleanInterval int64 `mapstructure:"autoCleanInterval"`
	// StatusEvery reads the status register after every N measurements;
	// negative disables.
	StatusEvery int `mapstructure:"statusEvery"`
	// InitialState is the mode assumed at start-up: idle | sleeping |
	// measuring.
	InitialState string `mapstructure:"initialState"`
}

// LumberjackConfig is the rolling log file.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"` // json | console
	File   LumberjackConfig `mapstructure:"file"`
}

type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
}

// Config is the top-level configuration.
type Config struct {
	I2C     I2CConfig     `mapstructure:"i2c"`
	Sensor  SensorConfig  `mapstructure:"sensor"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Load reads configuration from path (YAML, TOML or JSON by extension) and
// SPS30_* environment variables. With an empty path it looks for
// sps30.yaml in . and ./configs, and runs on defaults if none is found.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("sps30")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := cfg.Driver(); err != nil {
		return nil, err
	}
	if cfg.Sensor.PollInterval <= 0 {
		return nil, invalid("sensor.pollInterval must be positive")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("i2c.bus", 1)
	v.SetDefault("i2c.address", sps30.Address)

	v.SetDefault("sensor.width", "float32")
	v.SetDefault("sensor.checksum", "crc8")
	v.SetDefault("sensor.readDelay", 20*time.Millisecond)
	v.SetDefault("sensor.pollInterval", time.Second)
	v.SetDefault("sensor.autoCleanInterval", -1)
	v.SetDefault("sensor.statusEvery", 60)
	v.SetDefault("sensor.initialState", "idle")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 7)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.addr", ":9630")
	v.SetDefault("metrics.path", "/metrics")
}

// Driver converts the sensor section into a driver configuration.
func (c *Config) Driver() (sps30.Config, error) {
	out := sps30.Config{
		Address:   c.I2C.Address,
		ReadDelay: c.Sensor.ReadDelay,
	}
	if out.Address > 0x7F {
		return out, invalid(fmt.Sprintf("i2c.address 0x%X is not a 7-bit address", out.Address))
	}
	switch strings.ToLower(c.Sensor.Width) {
	case "float32", "fp32", "float":
		out.Width = sps30.Float32
	case "uint16", "ui16", "int", "":
		out.Width = sps30.UInt16
	default:
		return out, invalid("sensor.width " + c.Sensor.Width + ": want float32 or uint16")
	}
	switch strings.ToLower(c.Sensor.Checksum) {
	case "crc8", "crc":
		out.Checksum = sps30.CRC8
	case "sum", "":
		out.Checksum = sps30.SumComplement
	default:
		return out, invalid("sensor.checksum " + c.Sensor.Checksum + ": want crc8 or sum")
	}
	switch strings.ToLower(c.Sensor.InitialState) {
	case "idle", "":
		out.InitialState = sps30.Idle
	case "sleeping", "sleep":
		out.InitialState = sps30.Sleeping
	case "measuring":
		out.InitialState = sps30.Measuring
	default:
		return out, invalid("sensor.initialState " + c.Sensor.InitialState + ": want idle, sleeping or measuring")
	}
	if c.Sensor.AutoCleanInterval > int64(^uint32(0)) {
		return out, invalid("sensor.autoCleanInterval exceeds 32 bits")
	}
	return out, nil
}

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidConfig, Op: "config", Err: errors.New(msg)}
}
