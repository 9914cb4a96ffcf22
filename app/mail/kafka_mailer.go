package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaMailer publishes each message as JSON for a delivery worker. The first
// recipient is used as the message key so retries for one address stay ordered.
type KafkaMailer struct {
	writer messageWriter
}

func NewKafkaMailer(w messageWriter) *KafkaMailer {
	return &KafkaMailer{writer: w}
}

func (m *KafkaMailer) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var key []byte
	if len(msg.To) > 0 {
		key = []byte(msg.To[0])
	}

	if err := m.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to queue mail: %w", err)
	}
	log.Debugf("[mail] queued %q for %v", msg.Subject, msg.To)
	return nil
}
