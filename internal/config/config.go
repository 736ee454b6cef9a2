// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"nilm-live/internal/data"
)

type Config struct {
	Server struct {
		Host   string `mapstructure:"host"`
		Port   int    `mapstructure:"port"`
		WebDir string `mapstructure:"web_dir"`
	} `mapstructure:"server"`
	Stream struct {
		Path     string        `mapstructure:"path"`
		Interval time.Duration `mapstructure:"interval"`
		Seed     uint64        `mapstructure:"seed"` // 0 = random per connection
	} `mapstructure:"stream"`
	Appliances []data.Appliance `mapstructure:"appliances"`
	Log        LogConfig        `mapstructure:"log"`
	Auth       struct {
		APIKeys []string `mapstructure:"api_keys"`
	} `mapstructure:"auth"`
	Sessions struct {
		History int `mapstructure:"history"`
	} `mapstructure:"sessions"`
	MQTT  MQTTConfig  `mapstructure:"mqtt"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// MQTTConfig mirrors streamed events to a broker when Broker is set.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

// KafkaConfig mirrors streamed events to a topic when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Load reads config.yaml from path, then NILM_* environment variables and PORT.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("nilm")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.BindEnv("server.port", "NILM_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind PORT: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Appliances) == 0 {
		cfg.Appliances = data.DefaultAppliances()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.web_dir", "./frontend")
	v.SetDefault("stream.path", "/ws")
	v.SetDefault("stream.interval", 2*time.Second)
	v.SetDefault("stream.seed", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("sessions.history", 100)
	v.SetDefault("mqtt.client_id", "nilm-live")
	v.SetDefault("mqtt.topic_prefix", "nilm/events")
	v.SetDefault("kafka.topic", "nilm.events")
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Stream.Interval <= 0 {
		return fmt.Errorf("invalid stream interval: %s", c.Stream.Interval)
	}
	if !strings.HasPrefix(c.Stream.Path, "/") {
		return fmt.Errorf("stream path must start with /: %q", c.Stream.Path)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("invalid mqtt qos: %d", c.MQTT.QoS)
	}
	seen := make(map[string]bool, len(c.Appliances))
	for _, a := range c.Appliances {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate appliance: %s", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
