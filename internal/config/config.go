package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wheelibin/lanlight/internal/constants"
	"github.com/wheelibin/lanlight/internal/device"
	"github.com/wheelibin/lanlight/internal/models"
)

type DeviceConfig struct {
	ID          string        `mapstructure:"id"`
	LocalKey    string        `mapstructure:"localKey"`
	IP          string        `mapstructure:"ip"`
	Port        int           `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"maxAttempts"`
}

type DiscoveryConfig struct {
	// look the device up by id instead of using device.ip
	Enabled        bool          `mapstructure:"enabled"`
	Ports          []int         `mapstructure:"ports"`
	Deadline       time.Duration `mapstructure:"deadline"`
	ReceiveTimeout time.Duration `mapstructure:"receiveTimeout"`
}

type AmbientConfig struct {
	Interval          time.Duration     `mapstructure:"interval"`
	Vivid             bool              `mapstructure:"vivid"`
	RestoreBrightness float64           `mapstructure:"restoreBrightness"`
	GeoLocation       string            `mapstructure:"geoLocation"`
	Pattern           models.DayPattern `mapstructure:"pattern"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// log to this file (rotated) instead of stderr
	File   string `mapstructure:"file"`
	MaxAge int    `mapstructure:"maxAge"`
}

type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
}

type Config struct {
	Device    DeviceConfig    `mapstructure:"device"`
	DPS       device.DPS      `mapstructure:"dps"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Ambient   AmbientConfig   `mapstructure:"ambient"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// FlagKeys maps command line flag names to configuration keys. Flags missing
// from the flag set are skipped.
var FlagKeys = map[string]string{
	"id":        "device.id",
	"key":       "device.localKey",
	"ip":        "device.ip",
	"port":      "device.port",
	"timeout":   "device.timeout",
	"attempts":  "device.maxAttempts",
	"discover":  "discovery.enabled",
	"deadline":  "discovery.deadline",
	"log-level": "logging.level",
	"log-file":  "logging.file",
	"interval":  "ambient.interval",
	"vivid":     "ambient.vivid",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.id", "")
	v.SetDefault("device.localKey", "")
	v.SetDefault("device.ip", "")
	v.SetDefault("device.port", constants.DevicePort)
	v.SetDefault("device.timeout", constants.ConnectionTimeout)
	v.SetDefault("device.maxAttempts", constants.MaxAttempts)

	v.SetDefault("dps.power", device.DefaultDPS.Power)
	v.SetDefault("dps.mode", device.DefaultDPS.Mode)
	v.SetDefault("dps.brightness", device.DefaultDPS.Brightness)
	v.SetDefault("dps.colour", device.DefaultDPS.Colour)
	v.SetDefault("dps.scene", device.DefaultDPS.Scene)
	v.SetDefault("dps.countdown", device.DefaultDPS.Countdown)

	v.SetDefault("discovery.enabled", false)
	v.SetDefault("discovery.ports", []int{constants.DiscoveryPortPlain, constants.DiscoveryPortEncrypted})
	v.SetDefault("discovery.deadline", constants.DiscoveryDeadline)
	v.SetDefault("discovery.receiveTimeout", constants.DiscoveryReceiveTimeout)

	v.SetDefault("ambient.interval", constants.AmbientUpdateInterval)
	v.SetDefault("ambient.vivid", false)
	v.SetDefault("ambient.restoreBrightness", constants.AmbientRestoreBrightness)
	v.SetDefault("ambient.geoLocation", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.maxAge", 3)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads config.json from configFile, or from the standard locations when
// configFile is empty, then applies LANLIGHT_* environment variables and any
// flags that were set. A missing config file is not an error.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")                  // name of config file (without extension)
		v.SetConfigType("json")                    // REQUIRED if the config file does not have the extension in the name
		v.AddConfigPath("/etc/lanlight/")          // path to look for the config file in
		v.AddConfigPath("$HOME/.config/lanlight/") // call multiple times to add many search paths
		v.AddConfigPath(".")                       // optionally look for config in the working directory
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("LANLIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %q: %w", name, err)
				}
			}
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}

func (c DeviceConfig) Identity() device.Identity {
	return device.Identity{ID: c.ID, LocalKey: c.LocalKey, IP: c.IP}
}

// ClientOptions turns the device settings into client options.
func (c *Config) ClientOptions() []device.Option {
	return []device.Option{
		device.WithPort(c.Device.Port),
		device.WithTimeout(c.Device.Timeout),
		device.WithMaxAttempts(c.Device.MaxAttempts),
		device.WithDPS(c.DPS),
	}
}
