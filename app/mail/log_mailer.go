package mail

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger log.FieldLogger
}

func NewLogMailer(logger log.FieldLogger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.WithFields(log.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}).Info("[mail] " + msg.Body)
	return nil
}
