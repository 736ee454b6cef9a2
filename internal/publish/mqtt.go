// internal/publish/mqtt.go
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"nilm-live/internal/config"
	"nilm-live/internal/data"
)

const (
	mqttConnectWait = 5 * time.Second
	mqttPublishWait = time.Second
)

var errMQTTTimeout = errors.New("mqtt: publish timed out")

// MQTTPublisher sends each event to <prefix>/<session id>, the way a smart
// plug would report to a home broker.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	log    *slog.Logger
}

// NewMQTTPublisher connects to cfg.Broker.
func NewMQTTPublisher(cfg config.MQTTConfig, log *slog.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectWait).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt connection lost", slog.Any("err", err))
		})
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(mqttConnectWait) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", cfg.Broker, err)
	}
	log.Info("mqtt tap connected", slog.String("broker", cfg.Broker))
	return newMQTTPublisher(c, cfg, log), nil
}

func newMQTTPublisher(c mqtt.Client, cfg config.MQTTConfig, log *slog.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: c, prefix: cfg.TopicPrefix, qos: cfg.QoS, log: log}
}

func (p *MQTTPublisher) topic(sessionID string) string {
	return p.prefix + "/" + sessionID
}

func (p *MQTTPublisher) Publish(ctx context.Context, sessionID string, ev data.Event) error {
	payload, err := data.Encode(ev)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic(sessionID), p.qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mqttPublishWait):
		return errMQTTTimeout
	}
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func (p *MQTTPublisher) Name() string { return "mqtt" }
