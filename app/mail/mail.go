// Package mail hands outgoing messages to a delivery backend. Nothing here
// talks SMTP: messages are logged, queued on Kafka for a delivery worker, or
// posted to a relay webhook.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

const DefaultFrom = "admin@myblog.com"

type Message struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	From    string   `json:"from"`
	To      []string `json:"to"`
}

// Mailer delivers a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Driver       string   `toml:"driver"` // log, kafka or webhook
	From         string   `toml:"from"`
	KafkaBrokers []string `toml:"kafkaBrokers"`
	KafkaTopic   string   `toml:"kafkaTopic"`
	WebhookURL   string   `toml:"webhookURL"`
	Timeout      string   `toml:"timeout"`
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Driver) {
	case "", "log":
	case "kafka":
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("mail: kafka driver needs kafkaBrokers and kafkaTopic")
		}
	case "webhook":
		if c.WebhookURL == "" {
			return fmt.Errorf("mail: webhook driver needs webhookURL")
		}
	default:
		return fmt.Errorf("mail: unknown driver %q", c.Driver)
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("mail: bad timeout: %w", err)
		}
	}
	return nil
}

// New builds the mailer selected by conf.Driver. The returned close function
// releases the driver's resources.
func New(conf Config) (Mailer, func() error, error) {
	if err := conf.Validate(); err != nil {
		return nil, nil, err
	}
	timeout := 10 * time.Second
	if conf.Timeout != "" {
		timeout, _ = time.ParseDuration(conf.Timeout)
	}

	switch strings.ToLower(conf.Driver) {
	case "kafka":
		w := &kafka.Writer{
			Addr:         kafka.TCP(conf.KafkaBrokers...),
			Topic:        conf.KafkaTopic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: timeout,
		}
		return NewKafkaMailer(w), w.Close, nil
	case "webhook":
		return NewWebhookMailer(conf.WebhookURL, timeout), noClose, nil
	default:
		return NewLogMailer(log.StandardLogger()), noClose, nil
	}
}

func noClose() error { return nil }
