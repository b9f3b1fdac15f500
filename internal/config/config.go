// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Subscriber holds the measurement-side options for one run.
type Subscriber struct {
	QoS                 byte    `yaml:"qos"`
	NetCond             string  `yaml:"net_cond"`
	ClientID            string  `yaml:"client_id"`
	Topic               string  `yaml:"topic"`
	DisconnectPerc      float64 `yaml:"disconnect_perc"`
	DisconnectIntervalS float64 `yaml:"disconnect_interval_s"`
	DisconnectDurationS float64 `yaml:"disconnect_duration_s"`
}

// Shared holds options common to the subscriber and its paired publisher.
type Shared struct {
	TotalPackets int    `yaml:"total_packets"`
	BrokerURL    string `yaml:"broker_url"`
	KeepaliveS   int    `yaml:"keepalive_s"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
}

// Output controls where samples and the cumulative report land.
type Output struct {
	DataDir   string `yaml:"data_dir"`
	StatsFile string `yaml:"stats_file"`
}

// Config is the root configuration for a measurement run. It is immutable
// after Load returns.
type Config struct {
	Subscriber Subscriber `yaml:"subscriber"`
	Shared     Shared     `yaml:"shared"`
	Output     Output     `yaml:"output"`
}

// Default returns the documented defaults, used when no config file is
// given or found.
func Default() *Config {
	return &Config{
		Subscriber: Subscriber{
			QoS:                 0,
			NetCond:             "normal",
			ClientID:            "test-sub",
			Topic:               "test",
			DisconnectPerc:      0,
			DisconnectIntervalS: 10,
			DisconnectDurationS: 10,
		},
		Shared: Shared{
			TotalPackets: 50,
			BrokerURL:    "ws://m.shohamc1.com:80",
			KeepaliveS:   60,
			Username:     "test",
			Password:     "test",
		},
		Output: Output{
			DataDir:   "data",
			StatsFile: "qos-stats.txt",
		},
	}
}

// Load reads a YAML config, validates it against the CUE schema, and
// merges it over the defaults. A missing file is not an error: the
// defaults are returned unchanged. Keys absent from the file keep their
// default values.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) check() error {
	if c.Subscriber.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", c.Subscriber.QoS)
	}
	if c.Subscriber.DisconnectPerc < 0 || c.Subscriber.DisconnectPerc > 1 {
		return fmt.Errorf("disconnect_perc must be within [0,1], got %g", c.Subscriber.DisconnectPerc)
	}
	if c.Subscriber.DisconnectIntervalS <= 0 {
		return fmt.Errorf("disconnect_interval_s must be positive, got %g", c.Subscriber.DisconnectIntervalS)
	}
	if c.Subscriber.DisconnectDurationS < 0 {
		return fmt.Errorf("disconnect_duration_s must not be negative, got %g", c.Subscriber.DisconnectDurationS)
	}
	if c.Shared.TotalPackets <= 0 {
		return fmt.Errorf("total_packets must be positive, got %d", c.Shared.TotalPackets)
	}
	return nil
}

// CheckInterval is the fault injector's tick interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Subscriber.DisconnectIntervalS * float64(time.Second))
}

// Quiescent is the enforced wait between a disconnect and the next
// reconnect attempt.
func (c *Config) Quiescent() time.Duration {
	return time.Duration(c.Subscriber.DisconnectDurationS * float64(time.Second))
}

// Keepalive is the MQTT keepalive interval.
func (c *Config) Keepalive() time.Duration {
	return time.Duration(c.Shared.KeepaliveS) * time.Second
}
