package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/bassista/go_pagewatch/internal/config"
	"github.com/bassista/go_pagewatch/internal/logger"
	"github.com/wneessen/go-mail"
)

const smtpsPort = 465

// SMTPNotifier sends plain-text mail, upgrading the connection with STARTTLS
// (or implicit TLS on port 465) and authenticating before sending.
type SMTPNotifier struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

func NewSMTPNotifier(cfg config.SMTPConfig, timeout time.Duration) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.From == "" || cfg.Password == "" {
		return nil, errors.New("incomplete smtp configuration: host, from and password are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Username == "" {
		cfg.Username = cfg.From
	}
	return &SMTPNotifier{cfg: cfg, timeout: timeout}, nil
}

func (n *SMTPNotifier) Notify(ctx context.Context, subject, body string, recipients []string) bool {
	log := logger.WithComponent("notify")

	msg, err := n.buildMessage(subject, body, recipients)
	if err != nil {
		log.Errorf("smtp message error: %v", err)
		return false
	}

	client, err := mail.NewClient(n.cfg.Host, n.clientOptions()...)
	if err != nil {
		log.Errorf("smtp client error: %v", err)
		return false
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		log.Errorf("smtp error: %v", err)
		return false
	}

	log.Infof("email sent to %v", recipients)
	return true
}

func (n *SMTPNotifier) buildMessage(subject, body string, recipients []string) (*mail.Msg, error) {
	if len(recipients) == 0 {
		return nil, errors.New("no recipients")
	}
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, err
	}
	if err := msg.To(recipients...); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (n *SMTPNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
	}
	if n.cfg.Port == smtpsPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if n.timeout > 0 {
		opts = append(opts, mail.WithTimeout(n.timeout))
	}
	return opts
}
