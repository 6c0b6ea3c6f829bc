package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/pauljones0/pl-jobs-scraper/internal/util"
)

// EmailConfig holds SMTP settings. Gmail needs an app password.
type EmailConfig struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Recipient string
	Retries   int
}

// EmailClient sends plain text mail over SMTP with STARTTLS.
type EmailClient struct {
	cfg          EmailConfig
	retryBackoff time.Duration
}

func NewEmail(cfg EmailConfig) *EmailClient {
	return &EmailClient{cfg: cfg, retryBackoff: 2 * time.Second}
}

func (c *EmailClient) Send(ctx context.Context, subject, body, attachmentPath string) error {
	msg, err := c.message(subject, body, attachmentPath)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(c.cfg.Host,
		mail.WithPort(c.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.cfg.Sender),
		mail.WithPassword(c.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	return util.RetryWithBackoff(ctx, c.cfg.Retries, c.retryBackoff, func(_ int) error {
		err := client.DialAndSendWithContext(ctx, msg)
		var sendErr *mail.SendError
		if errors.As(err, &sendErr) && !sendErr.IsTemp() {
			return util.Permanent(err)
		}
		return err
	})
}

func (c *EmailClient) message(subject, body, attachmentPath string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(c.cfg.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", c.cfg.Sender, err)
	}
	if err := msg.To(c.cfg.Recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", c.cfg.Recipient, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if attachmentPath != "" {
		msg.AttachFile(attachmentPath)
	}
	return msg, nil
}
