package mail

import (
	"context"
	"io"
	"log/slog"
)

// Message is a provider-agnostic email payload.
type Message struct {
	// From overrides the transport's default sender when set.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// Log writes messages to the structured log instead of delivering them.
// Bodies are not logged.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (*Log) Send(ctx context.Context, msg Message) error {
	if len(msg.recipients()) == 0 {
		return ErrNoRecipients
	}
	slog.InfoContext(ctx, "mail not delivered, log transport in use", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (*Log) Close() error { return nil }
