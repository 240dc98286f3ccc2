package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/platform/mailer"
)

// AccountNotifier sends the account emails. All texts are German.
type AccountNotifier interface {
	SendVerification(ctx context.Context, user *types.User, token string) error
	SendPasswordReset(ctx context.Context, user *types.User, token string) error
	SendAdminRegistration(ctx context.Context, user *types.User, profile *types.ManufacturerProfile) error
}

type NotifierConfig struct {
	// FrontendURL is the base the verification and reset links point to.
	FrontendURL string
	AdminEmail  string
	Location    *time.Location
}

type accountNotifier struct {
	log  *logger.Logger
	mail mailer.Mailer
	cfg  NotifierConfig
}

func NewAccountNotifier(log *logger.Logger, mail mailer.Mailer, cfg NotifierConfig) AccountNotifier {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &accountNotifier{log: log.With("service", "AccountNotifier"), mail: mail, cfg: cfg}
}

var accountMailHTML = template.Must(template.New("account").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #17a2b8; color: #fff; padding: 30px; text-align: center; border-radius: 8px 8px 0 0;">
      <h1>{{.Heading}}</h1>
    </div>
    <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 8px 8px;">
      <p>Sehr geehrte/r {{.Name}},</p>
      {{range .Paragraphs}}<p>{{.}}</p>
      {{end}}<p style="text-align: center;">
        <a href="{{.Link}}" style="display: inline-block; background: #17a2b8; color: #fff; padding: 15px 30px; text-decoration: none; border-radius: 6px; font-weight: bold;">{{.Button}}</a>
      </p>
      <p><strong>Dieser Link ist 24 Stunden gültig.</strong></p>
      <p>{{.Footer}}</p>
      <p>Mit freundlichen Grüßen,<br>Ihr Zahnovia Team</p>
    </div>
  </div>
</body>
</html>
`))

type accountMail struct {
	Subject    string
	Heading    string
	Name       string
	Paragraphs []string
	Button     string
	Link       string
	Footer     string
}

func (m accountMail) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sehr geehrte/r %s,\n\n", m.Name)
	for _, p := range m.Paragraphs {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	b.WriteString(m.Link)
	b.WriteString("\n\nDieser Link ist 24 Stunden gültig.\n\n")
	b.WriteString(m.Footer)
	b.WriteString("\n\nMit freundlichen Grüßen,\nIhr Zahnovia Team\n")
	return b.String()
}

func (n *accountNotifier) send(ctx context.Context, to string, m accountMail) error {
	var html bytes.Buffer
	if err := accountMailHTML.Execute(&html, m); err != nil {
		return fmt.Errorf("render %q: %w", m.Subject, err)
	}
	return n.mail.Send(ctx, mailer.Message{
		Subject: m.Subject,
		To:      []string{to},
		Text:    m.text(),
		HTML:    html.String(),
	})
}

func (n *accountNotifier) link(path, token string) string {
	base := strings.TrimRight(n.cfg.FrontendURL, "/")
	return base + path + "?token=" + url.QueryEscape(token)
}

func fullName(u *types.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (n *accountNotifier) SendVerification(ctx context.Context, user *types.User, token string) error {
	return n.send(ctx, user.Email, accountMail{
		Subject: "Bestätigen Sie Ihre E-Mail-Adresse - Zahnovia",
		Heading: "Willkommen bei Zahnovia!",
		Name:    fullName(user),
		Paragraphs: []string{
			"vielen Dank für Ihre Registrierung bei Zahnovia.",
			"Bitte bestätigen Sie Ihre E-Mail-Adresse, indem Sie auf den folgenden Link klicken:",
		},
		Button: "E-Mail-Adresse bestätigen",
		Link:   n.link("/verify-email", token),
		Footer: "Falls Sie sich nicht bei Zahnovia registriert haben, ignorieren Sie diese E-Mail bitte.",
	})
}

func (n *accountNotifier) SendPasswordReset(ctx context.Context, user *types.User, token string) error {
	return n.send(ctx, user.Email, accountMail{
		Subject: "Passwort zurücksetzen - Zahnovia",
		Heading: "Passwort zurücksetzen",
		Name:    fullName(user),
		Paragraphs: []string{
			"Sie haben eine Anfrage zum Zurücksetzen Ihres Passworts gestellt.",
			"Klicken Sie auf den folgenden Link, um ein neues Passwort festzulegen:",
		},
		Button: "Neues Passwort festlegen",
		Link:   n.link("/password-reset/confirm", token),
		Footer: "Falls Sie diese Anfrage nicht gestellt haben, ignorieren Sie diese E-Mail bitte. Ihr Passwort wird nicht geändert.",
	})
}

// SendAdminRegistration is a no-op without a configured admin address.
func (n *accountNotifier) SendAdminRegistration(ctx context.Context, user *types.User, profile *types.ManufacturerProfile) error {
	if strings.TrimSpace(n.cfg.AdminEmail) == "" {
		return nil
	}
	company := ""
	if profile != nil {
		company = profile.CompanyName
	}
	text := fmt.Sprintf(`Neue Benutzerregistrierung bei Zahnovia:

E-Mail: %s
Name: %s
Firma: %s
Registrierungsdatum: %s
`, user.Email, fullName(user), company, user.CreatedAt.In(n.cfg.Location).Format("02.01.2006 15:04"))

	return n.mail.Send(ctx, mailer.Message{
		Subject: "Neue Registrierung - " + user.Email,
		To:      []string{n.cfg.AdminEmail},
		Text:    text,
	})
}
