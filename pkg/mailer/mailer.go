package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/article39/artist-platform-backend/pkg/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through an SMTP relay using PLAIN auth.
type SMTPSender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("mail host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("mail from address is required")
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:     cfg.Host,
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}, nil
}

// Send builds a MIME message and hands it to the relay. smtp.SendMail has no
// context support, so ctx is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return errors.New("mail recipient is required")
	}
	return s.sendMail(s.addr, s.auth, s.from, msg.To, buildMIME(s.from, msg, time.Now()))
}

func buildMIME(from string, msg Message, now time.Time) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTML)
	return buf.Bytes()
}

// Credentials is the data of the login-credentials email.
type Credentials struct {
	To       string
	Name     string
	Username string
	Password string
}

// SongStatus is the data of the song review notification.
type SongStatus struct {
	To         string
	Name       string
	SongTitle  string
	Status     string
	Note       string
	YouTubeURL string
}

// Mailer renders the transactional templates and sends them.
type Mailer struct {
	sender   Sender
	tmpl     *template.Template
	siteName string
	loginURL string
}

func New(sender Sender, cfg config.MailConfig) (*Mailer, error) {
	if sender == nil {
		return nil, errors.New("mail sender required")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Mailer{sender: sender, tmpl: tmpl, siteName: cfg.SiteName, loginURL: cfg.LoginURL}, nil
}

func (m *Mailer) SendCredentials(ctx context.Context, c Credentials) error {
	html, err := m.render("credentials.html", map[string]any{
		"Name":     c.Name,
		"Username": c.Username,
		"Email":    c.To,
		"Password": c.Password,
		"SiteName": m.siteName,
		"LoginURL": m.loginURL,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{
		To:      []string{c.To},
		Subject: "Your login credentials - " + m.siteName,
		HTML:    html,
	})
}

func (m *Mailer) SendSongStatus(ctx context.Context, s SongStatus) error {
	html, err := m.render("song_status.html", map[string]any{
		"Name":       s.Name,
		"SongTitle":  s.SongTitle,
		"Status":     s.Status,
		"Note":       s.Note,
		"YouTubeURL": s.YouTubeURL,
		"SiteName":   m.siteName,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, Message{
		To:      []string{s.To},
		Subject: "Song Status Update - " + s.SongTitle,
		HTML:    html,
	})
}

func (m *Mailer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
