package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers plain-text notifications over SMTP. Port 465 uses
// implicit TLS; any other port negotiates STARTTLS opportunistically so
// local MTAs on port 25 keep working.
type Sender struct {
	client *gomail.Client
	from   string
	to     []string
}

// Options configures the SMTP transport.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// transportSettings is the connection policy derived from Options.
type transportSettings struct {
	SSL       bool
	TLSPolicy gomail.TLSPolicy
	Auth      bool
}

// settingsFor maps the configured port and credentials onto transport
// behavior: port 465 means implicit TLS, everything else negotiates
// STARTTLS opportunistically, and auth happens only with a username.
func settingsFor(opts Options) transportSettings {
	return transportSettings{
		SSL:       opts.Port == 465,
		TLSPolicy: gomail.TLSOpportunistic,
		Auth:      opts.Username != "",
	}
}

// NewSender builds the SMTP client. Returns an error on malformed
// options; delivery errors surface from Send.
func NewSender(opts Options) (*Sender, error) {
	settings := settingsFor(opts)

	clientOpts := []gomail.Option{
		gomail.WithPort(opts.Port),
		gomail.WithTLSPolicy(settings.TLSPolicy),
	}
	if settings.SSL {
		clientOpts = append(clientOpts, gomail.WithSSL())
	}
	if settings.Auth {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.Username),
			gomail.WithPassword(opts.Password),
		)
	}

	client, err := gomail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Sender{client: client, from: opts.From, to: opts.To}, nil
}

// Send delivers one message to the configured recipients.
func (s *Sender) Send(ctx context.Context, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(s.to...); err != nil {
		return fmt.Errorf("to addresses: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
