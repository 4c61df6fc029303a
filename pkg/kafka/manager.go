// Package kafka publishes adt-lib events to Kafka through a shared sync
// producer.
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"

	"github.com/Goden-Gun/adt-lib/pkg/config"
)

var (
	ErrNoBrokers    = errors.New("kafka brokers empty")
	ErrNoTopic      = errors.New("kafka topic empty")
	ErrNilManager   = errors.New("kafka manager nil")
	ErrManagerClose = errors.New("kafka manager closed")
)

// PublishObserver is an optional hook to observe publish latency and errors.
type PublishObserver interface {
	ObservePublish(topic string, duration time.Duration, err error)
}

// Manager owns a sarama sync producer shared by every publisher in the
// process.
type Manager struct {
	cfg      config.KafkaConfig
	producer sarama.SyncProducer

	observerMu      sync.RWMutex
	publishObserver PublishObserver

	closeOnce sync.Once
	closed    chan struct{}
}

// NewManager dials the brokers in cfg.
func NewManager(cfg config.KafkaConfig) (*Manager, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig(cfg))
	if err != nil {
		return nil, err
	}
	return NewManagerWithProducer(cfg, producer), nil
}

// NewManagerWithProducer wraps an existing producer, e.g. sarama/mocks.
func NewManagerWithProducer(cfg config.KafkaConfig, producer sarama.SyncProducer) *Manager {
	return &Manager{cfg: cfg, producer: producer, closed: make(chan struct{})}
}

func saramaConfig(cfg config.KafkaConfig) *sarama.Config {
	base := sarama.NewConfig()
	base.Version = sarama.V2_1_0_0
	if cfg.ClientID != "" {
		base.ClientID = cfg.ClientID
	}

	base.Producer.Return.Successes = true
	base.Producer.Retry.Max = max(cfg.MaxAttempts, 3)
	base.Producer.RequiredAcks = parseRequiredAcks(cfg.RequiredAcks)

	if cfg.TLSEnabled {
		base.Net.TLS.Enable = true
		base.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.Username != "" {
		base.Net.SASL.Enable = true
		base.Net.SASL.User = cfg.Username
		base.Net.SASL.Password = cfg.Password
		configureSASL(base, cfg.SASLMechanism)
	}
	return base
}

// SetPublishObserver installs or replaces the publish observer.
func (m *Manager) SetPublishObserver(observer PublishObserver) {
	if m == nil {
		return
	}
	m.observerMu.Lock()
	m.publishObserver = observer
	m.observerMu.Unlock()
}

func (m *Manager) observer() PublishObserver {
	m.observerMu.RLock()
	defer m.observerMu.RUnlock()
	return m.publishObserver
}

// Publish sends a message to topic, or to the configured topic when empty.
// The trace context of ctx travels in the message headers.
func (m *Manager) Publish(ctx context.Context, topic string, key, value []byte) (err error) {
	if m == nil {
		return ErrNilManager
	}
	if topic == "" {
		topic = m.cfg.Topic
	}
	start := time.Now()
	defer func() {
		if o := m.observer(); o != nil {
			o.ObservePublish(topic, time.Since(start), err)
		}
	}()
	if topic == "" {
		return ErrNoTopic
	}

	select {
	case <-m.closed:
		return ErrManagerClose
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var headers headersCarrier
	otel.GetTextMapPropagator().Inject(ctx, &headers)

	msg := &sarama.ProducerMessage{Topic: topic, Headers: headers}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}
	if len(value) > 0 {
		msg.Value = sarama.ByteEncoder(value)
	}
	_, _, err = m.producer.SendMessage(msg)
	return err
}

// Close shuts down the producer. Later calls are no-ops.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	var err error
	m.closeOnce.Do(func() {
		close(m.closed)
		if m.producer != nil {
			err = m.producer.Close()
		}
	})
	return err
}

func parseRequiredAcks(v string) sarama.RequiredAcks {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		return sarama.NoResponse
	case "one":
		return sarama.WaitForLocal
	default:
		return sarama.WaitForAll
	}
}

// headersCarrier implements propagation.TextMapCarrier for Kafka headers.
type headersCarrier []sarama.RecordHeader

func (c *headersCarrier) Get(key string) string {
	for _, h := range *c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headersCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c *headersCarrier) Keys() []string {
	keys := make([]string, 0, len(*c))
	for _, h := range *c {
		keys = append(keys, string(h.Key))
	}
	return keys
}
