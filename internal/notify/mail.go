package notify

import (
	"context"
	"time"

	"easylist/internal/config"

	"github.com/cockroachdb/errors"
	"github.com/wneessen/go-mail"
)

// MailClient is the part of *mail.Client used to deliver messages.
type MailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// NewMailClient builds the SMTP client once at startup; it is shared by all
// deliveries for the lifetime of the process.
func NewMailClient(cfg *config.Config) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mail client")
	}
	return client, nil
}

// MailSender sends completion notices as HTML mail.
type MailSender struct {
	client MailClient
	from   string
}

var _ Sender = (*MailSender)(nil)

func NewMailSender(client MailClient, from string) *MailSender {
	return &MailSender{client: client, from: from}
}

func (s *MailSender) Send(ctx context.Context, n Completion) error {
	msg, err := s.message(n)
	if err != nil {
		return err
	}
	return errors.Wrap(s.client.DialAndSendWithContext(ctx, msg), "failed to send completion mail")
}

func (s *MailSender) message(n Completion) (*mail.Msg, error) {
	if n.AuthorEmail == "" {
		return nil, errors.New("completion notice has no recipient")
	}

	body, err := RenderHTML(n)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render completion mail")
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, errors.Wrapf(err, "invalid sender address %q", s.from)
	}
	if err := msg.To(n.AuthorEmail); err != nil {
		return nil, errors.Wrapf(err, "invalid recipient address %q", n.AuthorEmail)
	}
	msg.Subject(Subject(n))
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}
