package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"

	"nilm-live/internal/config"
	"nilm-live/internal/data"
)

var (
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
	sample  = data.Event{EventID: 2, PredictedAppliance: "Mixer", DeltaPower: 420, Hour: 18, Confidence: 0.88}
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                       { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

// fakeMQTT records publishes; unused Client methods panic via the nil embed.
type fakeMQTT struct {
	mqtt.Client
	topics   []string
	payloads [][]byte
	qos      byte
	token    mqtt.Token
	closed   bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	f.qos = qos
	return f.token
}

func (f *fakeMQTT) Disconnect(quiesce uint) { f.closed = true }

func TestMQTTPublisher(t *testing.T) {
	fc := &fakeMQTT{token: completedToken(nil)}
	p := newMQTTPublisher(fc, config.MQTTConfig{TopicPrefix: "nilm/events", QoS: 1}, discard)

	if err := p.Publish(context.Background(), "sess-1", sample); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if diff := cmp.Diff([]string{"nilm/events/sess-1"}, fc.topics); diff != "" {
		t.Errorf("topics (-want +got):\n%s", diff)
	}
	got, err := data.Decode(fc.payloads[0])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if diff := cmp.Diff(sample, got); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}
	if fc.qos != 1 {
		t.Errorf("qos = %d, want 1", fc.qos)
	}
	p.Close()
	if !fc.closed {
		t.Error("Close did not disconnect")
	}
}

func TestMQTTPublisherErrors(t *testing.T) {
	brokerErr := errors.New("not authorized")
	p := newMQTTPublisher(&fakeMQTT{token: completedToken(brokerErr)}, config.MQTTConfig{TopicPrefix: "x"}, discard)
	if err := p.Publish(context.Background(), "s", sample); !errors.Is(err, brokerErr) {
		t.Errorf("Publish error = %v, want %v", err, brokerErr)
	}

	pending := &fakeToken{done: make(chan struct{})}
	p = newMQTTPublisher(&fakeMQTT{token: pending}, config.MQTTConfig{TopicPrefix: "x"}, discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, "s", sample); !errors.Is(err, context.Canceled) {
		t.Errorf("Publish error = %v, want context.Canceled", err)
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { w.closed = true; return nil }

func TestKafkaPublisher(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{w: fw, log: discard}
	if err := p.Publish(context.Background(), "sess-9", sample); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(fw.msgs))
	}
	msg := fw.msgs[0]
	if string(msg.Key) != "sess-9" {
		t.Errorf("key = %q, want sess-9", msg.Key)
	}
	if !strings.Contains(string(msg.Value), `"predicted_appliance":"Mixer"`) {
		t.Errorf("value = %s", msg.Value)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "Mixer" {
		t.Errorf("headers = %+v", msg.Headers)
	}
	p.Close()
	if !fw.closed {
		t.Error("Close did not close writer")
	}
}

type stubPublisher struct {
	name  string
	err   error
	calls int
}

func (s *stubPublisher) Publish(context.Context, string, data.Event) error { s.calls++; return s.err }
func (s *stubPublisher) Close() error                                      { return s.err }
func (s *stubPublisher) Name() string                                      { return s.name }

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &stubPublisher{name: "ok"}
	bad := &stubPublisher{name: "bad", err: boom}
	m := Multi{ok, bad}

	err := m.Publish(context.Background(), "s", sample)
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "bad:") {
		t.Errorf("Publish error = %v", err)
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Errorf("calls ok=%d bad=%d, want 1 each", ok.calls, bad.calls)
	}
	if err := m.Close(); !errors.Is(err, boom) {
		t.Errorf("Close error = %v", err)
	}
	if err := (Multi{ok}).Publish(context.Background(), "s", sample); err != nil {
		t.Errorf("all-ok Publish error = %v", err)
	}
}

func TestFromConfigDefaultsToNop(t *testing.T) {
	p, err := FromConfig(&config.Config{}, discard)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if NameOf(p) != "nop" {
		t.Errorf("publisher = %s, want nop", NameOf(p))
	}

	cfg := &config.Config{Kafka: config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}, Topic: "t"}}
	p, err = FromConfig(cfg, discard)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer p.Close()
	if NameOf(p) != "kafka" {
		t.Errorf("publisher = %s, want kafka", NameOf(p))
	}
}
