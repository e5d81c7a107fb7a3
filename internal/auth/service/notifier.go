package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/nikhilsi/trading-recommendations-app/pkg/idx"
	"github.com/nikhilsi/trading-recommendations-app/pkg/slogx"
)

// Notifier delivers best-effort account emails. Callers never fail the
// primary operation on a notification error.
type Notifier interface {
	SendWelcome(ctx context.Context, email string) error
	SendInvite(ctx context.Context, email, code, invitedBy string) error
}

const (
	notifyTimeout     = 30 * time.Second
	defaultAppName    = "Trading Intelligence"
	defaultSMTPPort   = 587
	defaultRetryCount = 3
)

// Outbox runs notifications in the background on a context detached from
// the request, and lets shutdown wait for the ones still in flight. A nil
// Outbox still sends, it just cannot be waited on.
type Outbox struct {
	wg sync.WaitGroup
}

// Go runs send in its own goroutine. Errors and panics are logged, never
// returned.
func (o *Outbox) Go(ctx context.Context, kind string, send func(context.Context) error) {
	ctx = slogx.Detach(ctx)
	if o != nil {
		o.wg.Add(1)
	}
	go func() {
		if o != nil {
			defer o.wg.Done()
		}
		log := slogx.FromContext(ctx)
		defer func() {
			if r := recover(); r != nil {
				log.Error("notification panicked",
					slog.String("kind", kind),
					slog.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			log.Warn("notification failed",
				slog.String("kind", kind),
				slog.Any("error", err),
			)
		}
	}()
}

// Wait blocks until every notification started with Go has finished, or
// ctx is done.
func (o *Outbox) Wait(ctx context.Context) error {
	if o == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogNotifier only logs. It is used when SMTP is not configured.
type LogNotifier struct{}

func (LogNotifier) SendWelcome(ctx context.Context, email string) error {
	slogx.FromContext(ctx).Info("welcome email skipped, smtp not configured", slog.String("email", email))
	return nil
}

func (LogNotifier) SendInvite(ctx context.Context, email, code, invitedBy string) error {
	slogx.FromContext(ctx).Info("invite email skipped, smtp not configured",
		slog.String("email", email),
		slog.String("code", code),
	)
	return nil
}

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

// SMTPConfig configures SMTPNotifier.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	AppName   string
	AppURL    string

	// InviteTTLDays is quoted in the invitation text.
	InviteTTLDays int
	Retries       int
}

// SMTPNotifier sends multipart text/HTML mail through an SMTP relay.
// net/smtp upgrades to STARTTLS when the server offers it, and PLAIN auth
// refuses to run over an unencrypted remote connection.
type SMTPNotifier struct {
	cfg SMTPConfig

	// send defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  Clock
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = defaultSMTPPort
	}
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetryCount
	}
	if cfg.AppName == "" {
		cfg.AppName = defaultAppName
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.Username
	}
	if cfg.InviteTTLDays <= 0 {
		cfg.InviteTTLDays = DefaultInviteTTLDays
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

type welcomeData struct {
	AppName      string
	Name         string
	DashboardURL string
	Year         int
}

type inviteData struct {
	AppName       string
	InvitedBy     string
	Code          string
	RegisterURL   string
	ExpiresInDays int
	Year          int
}

func (n *SMTPNotifier) SendWelcome(ctx context.Context, email string) error {
	name, _, _ := strings.Cut(email, "@")
	data := welcomeData{
		AppName:      n.cfg.AppName,
		Name:         name,
		DashboardURL: n.cfg.AppURL + "/dashboard",
		Year:         n.now.now().Year(),
	}
	return n.deliver(ctx, email, "Welcome to "+n.cfg.AppName+"!", "welcome", data)
}

func (n *SMTPNotifier) SendInvite(ctx context.Context, email, code, invitedBy string) error {
	if invitedBy == "" {
		invitedBy = "An administrator"
	}
	data := inviteData{
		AppName:       n.cfg.AppName,
		InvitedBy:     invitedBy,
		Code:          code,
		RegisterURL:   n.cfg.AppURL + "/register?code=" + code,
		ExpiresInDays: n.cfg.InviteTTLDays,
		Year:          n.now.now().Year(),
	}
	return n.deliver(ctx, email, "You're invited to "+n.cfg.AppName+"!", "invite", data)
}

func (n *SMTPNotifier) deliver(ctx context.Context, to, subject, name string, data any) error {
	msg, err := n.buildMessage(to, subject, name, data)
	if err != nil {
		return err
	}
	if err := n.sendWithRetry(ctx, to, msg); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("email sent", slog.String("template", name), slog.String("to", to))
	return nil
}

func (n *SMTPNotifier) sendWithRetry(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	var lastErr error
	for attempt := 1; attempt <= n.cfg.Retries; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * time.Second
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(delay):
			}
		}

		lastErr = n.send(addr, auth, n.cfg.FromEmail, []string{to}, msg)
		if lastErr == nil {
			return nil
		}
		slogx.FromContext(ctx).Debug("smtp send attempt failed",
			slog.Int("attempt", attempt),
			slog.Any("error", lastErr),
		)
	}
	return fmt.Errorf("send mail after %d attempts: %w", n.cfg.Retries, lastErr)
}

func (n *SMTPNotifier) buildMessage(to, subject, name string, data any) ([]byte, error) {
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", name, err)
	}

	boundary := "alt-" + idx.New().String()
	from := mime.QEncoding.Encode("utf-8", n.cfg.FromName) + " <" + n.cfg.FromEmail + ">"
	if n.cfg.FromName == "" {
		from = n.cfg.FromEmail
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n", boundary)
	b.Write(text.Bytes())
	fmt.Fprintf(&b, "\r\n--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n", boundary)
	b.Write(html.Bytes())
	fmt.Fprintf(&b, "\r\n--%s--\r\n", boundary)
	return b.Bytes(), nil
}
