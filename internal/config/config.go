// Package config loads the settings of the host-side DS3231 tools.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bus  BusConfig  `mapstructure:"bus"`
	MQTT MQTTConfig `mapstructure:"mqtt"`
	Poll PollConfig `mapstructure:"poll"`
}

type BusConfig struct {
	// Name is the periph.io bus name, e.g. "1" or "/dev/i2c-1". Empty picks the first bus.
	Name    string `mapstructure:"name"`
	Address uint16 `mapstructure:"address"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Topic is the prefix for the state, cmd and reply topics.
	Topic string `mapstructure:"topic"`
	QoS   byte   `mapstructure:"qos"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads the YAML file at path. An empty path yields the defaults, still subject to
// DS3231_* environment overrides (DS3231_MQTT_BROKER, DS3231_POLL_INTERVAL, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("bus.name", "")
	v.SetDefault("bus.address", 0x68)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "ds3231ctl")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic", "ds3231")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("poll.interval", "10s")

	v.SetEnvPrefix("DS3231")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Bus.Address == 0 || c.Bus.Address > 0x7F {
		return fmt.Errorf("bus.address %#x is not a 7-bit I2C address", c.Bus.Address)
	}
	if c.MQTT.Topic == "" {
		return errors.New("mqtt.topic must be set")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos %d not in [0, 2]", c.MQTT.QoS)
	}
	if c.Poll.Interval <= 0 {
		return errors.New("poll.interval must be positive")
	}
	return nil
}
