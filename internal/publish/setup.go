// internal/publish/setup.go
package publish

import (
	"log/slog"

	"nilm-live/internal/config"
)

// FromConfig builds the configured taps. With none configured it returns Nop.
func FromConfig(cfg *config.Config, log *slog.Logger) (Publisher, error) {
	var taps Multi
	if cfg.MQTT.Broker != "" {
		p, err := NewMQTTPublisher(cfg.MQTT, log.With(slog.String("sink", "mqtt")))
		if err != nil {
			return nil, err
		}
		taps = append(taps, p)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		taps = append(taps, NewKafkaPublisher(cfg.Kafka, log.With(slog.String("sink", "kafka"))))
	}

	switch len(taps) {
	case 0:
		return Nop{}, nil
	case 1:
		return taps[0], nil
	default:
		return taps, nil
	}
}
