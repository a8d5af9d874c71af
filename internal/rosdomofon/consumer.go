package rosdomofon

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/config"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
)

var (
	// ErrNoHandler is returned when the consumer is started without a handler.
	ErrNoHandler = errors.New("rosdomofon: no signup handler registered")

	// ErrAlreadyRunning is returned when the consumer is started twice.
	ErrAlreadyRunning = errors.New("rosdomofon: signup consumer already running")
)

// SignupHandler receives decoded company signup events.
type SignupHandler func(ctx context.Context, signup models.SignUpEvent) error

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SignupConsumer reads the company signup topic and dispatches each event to a handler.
type SignupConsumer struct {
	reader messageReader
	topic  string
	logger *log.Logger

	mu      sync.Mutex
	handler SignupHandler
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSignupConsumer builds a consumer group reader on SIGN_UPS_<company>.
func NewSignupConsumer(cfg config.KafkaConfig, logger *log.Logger) (*SignupConsumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kafka configuration: %w", err)
	}

	dialer, err := newDialer(cfg)
	if err != nil {
		return nil, err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.BootstrapServers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.SignupTopic(),
		Dialer:         dialer,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})

	return newSignupConsumer(reader, cfg.SignupTopic(), logger), nil
}

func newSignupConsumer(reader messageReader, topic string, logger *log.Logger) *SignupConsumer {
	return &SignupConsumer{
		reader: reader,
		topic:  topic,
		logger: logger,
	}
}

func newDialer(cfg config.KafkaConfig) (*kafka.Dialer, error) {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	if cfg.SSLCACertPath != "" {
		tlsConfig, err := loadTLSConfig(cfg.SSLCACertPath)
		if err != nil {
			return nil, err
		}
		dialer.TLS = tlsConfig
	}

	if cfg.Username != "" {
		mechanism, err := saslMechanism(cfg.SASLMechanism, cfg.Username, cfg.Password)
		if err != nil {
			return nil, err
		}
		dialer.SASLMechanism = mechanism
	}

	return dialer, nil
}

func loadTLSConfig(caCertPath string) (*tls.Config, error) {
	pem, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read kafka CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caCertPath)
	}

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

func saslMechanism(name, username, password string) (sasl.Mechanism, error) {
	switch strings.ToUpper(name) {
	case "PLAIN":
		return plain.Mechanism{Username: username, Password: password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, username, password)
	case "", "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, username, password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism %q", name)
	}
}

// SetCompanySignupHandler registers the handler invoked for every signup event.
func (c *SignupConsumer) SetCompanySignupHandler(handler SignupHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// StartCompanySignupConsumer starts consuming in a background goroutine.
func (c *SignupConsumer) StartCompanySignupConsumer(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler == nil {
		return ErrNoHandler
	}
	if c.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	c.logger.Printf("📡 Consuming signups from topic %s", c.topic)
	go c.run(ctx, c.handler, c.done)

	return nil
}

// StopCompanySignupConsumer stops the background loop and waits for it to exit.
func (c *SignupConsumer) StopCompanySignupConsumer() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	c.logger.Printf("🛑 Signup consumer stopped")
}

// Close stops the consumer and releases the reader.
func (c *SignupConsumer) Close() error {
	c.StopCompanySignupConsumer()
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close kafka reader: %w", err)
	}
	return nil
}

func (c *SignupConsumer) run(ctx context.Context, handler SignupHandler, done chan struct{}) {
	defer close(done)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Printf("❌ Failed to fetch signup message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.dispatch(ctx, handler, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Printf("❌ Failed to commit offset %d: %v", msg.Offset, err)
		}
	}
}

// dispatch decodes one message and hands it to the handler. Malformed
// messages and handler failures are logged; the message is committed either way.
func (c *SignupConsumer) dispatch(ctx context.Context, handler SignupHandler, msg kafka.Message) {
	var signup models.SignUpEvent
	if err := json.Unmarshal(msg.Value, &signup); err != nil {
		c.logger.Printf("⚠️  Skipping malformed signup at offset %d: %v", msg.Offset, err)
		return
	}

	if err := handler(ctx, signup); err != nil {
		c.logger.Printf("❌ Signup %d handler failed: %v", signup.ID, err)
	}
}
