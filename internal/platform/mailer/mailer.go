package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/zahnovia-backend/internal/platform/gcp"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/platform/sendgrid"
)

const (
	BackendGmail    = "gmail"
	BackendSendGrid = "sendgrid"
	BackendLog      = "log"
)

type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

type Message struct {
	Subject     string
	To          []string
	Text        string
	HTML        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Backend  string          `yaml:"backend"`
	From     string          `yaml:"from"`
	FromName string          `yaml:"from_name"`
	SendGrid sendgrid.Config `yaml:"sendgrid"`
}

func New(ctx context.Context, log *logger.Logger, cfg Config, creds gcp.Credentials) (Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendGmail:
		return NewGmail(ctx, log, cfg, creds)
	case BackendSendGrid:
		c, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			return nil, err
		}
		return NewSendGrid(log, c, cfg), nil
	case "", BackendLog:
		return NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
}

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("mail: empty subject")
	}
	if strings.TrimSpace(msg.Text) == "" && strings.TrimSpace(msg.HTML) == "" {
		return fmt.Errorf("mail: empty body")
	}
	return nil
}

type logMailer struct {
	log *logger.Logger
}

// NewLog returns a Mailer that only logs; used in development.
func NewLog(log *logger.Logger) Mailer {
	return &logMailer{log: log.With("mailer", "log")}
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	m.log.Info("Mail not sent (log backend)",
		"subject", msg.Subject,
		"recipients", len(msg.To),
		"attachments", len(msg.Attachments),
		"body", msg.Text,
	)
	return nil
}

type sendGridMailer struct {
	log    *logger.Logger
	client sendgrid.Client
	from   sendgrid.EmailAddress
}

func NewSendGrid(log *logger.Logger, client sendgrid.Client, cfg Config) Mailer {
	return &sendGridMailer{
		log:    log.With("mailer", "sendgrid"),
		client: client,
		from:   sendgrid.EmailAddress{Email: cfg.From, Name: cfg.FromName},
	}
}

func (m *sendGridMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	req := sendgrid.SendEmailRequest{
		From:    m.from,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	}
	for _, to := range msg.To {
		req.To = append(req.To, sendgrid.EmailAddress{Email: to})
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, sendgrid.Attachment{Filename: a.Filename, MIMEType: a.MIMEType, Content: a.Content})
	}
	if _, err := m.client.Send(ctx, req); err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	return nil
}
