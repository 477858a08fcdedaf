package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
)

// SMTPSender delivers the confirmation and password reset emails. It is the
// fire-and-forget collaborator behind service.MailSender: callers log
// failures instead of propagating them.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string

	confirmTmpl *template.Template
	resetTmpl   *template.Template
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		from:        cfg.From,
		fromName:    cfg.FromName,
		confirmTmpl: template.Must(template.New("confirm").Parse(confirmBody)),
		resetTmpl:   template.Must(template.New("reset").Parse(resetBody)),
	}
}

type templateData struct {
	Username string
	Host     string
	Token    string
}

func (s *SMTPSender) SendConfirmation(ctx context.Context, email string, username string, host string, token string) error {
	return s.send(ctx, email, "Confirm your email", s.confirmTmpl, templateData{
		Username: username,
		Host:     host,
		Token:    token,
	})
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, email string, username string, host string, token string) error {
	return s.send(ctx, email, "Password reset request", s.resetTmpl, templateData{
		Username: username,
		Host:     host,
		Token:    token,
	})
}

func (s *SMTPSender) send(ctx context.Context, to string, subject string, tmpl *template.Template, data templateData) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render mail template: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", s.fromName), s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.from, []string{to}, msg.Bytes())
	}()

	// net/smtp has no context support; bound it ourselves.
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", to, ctx.Err())
	}
}

const confirmBody = `<html><body>
<p>Hi {{.Username}},</p>
<p>Thanks for registering. Please confirm your email address by following the link below:</p>
<p><a href="{{.Host}}/api/auth/confirmed_email/{{.Token}}">Confirm email</a></p>
<p>The link is valid for 7 days. If you did not register, ignore this message.</p>
</body></html>`

const resetBody = `<html><body>
<p>Hi {{.Username}},</p>
<p>We received a request to reset your password. Use the token below within the next hour:</p>
<p><code>{{.Token}}</code></p>
<p>If you did not request a reset, ignore this message and your password will stay unchanged.</p>
</body></html>`
