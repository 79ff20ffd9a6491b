// Package mailer sends one rendered message to one address over SMTP. Each
// call opens a fresh connection so a slow batch never trips a server-side
// idle timeout, and a single unreachable host can stall a send for at most
// connectTimeout.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/webrall/newsletter-backend/internal/config"
)

const connectTimeout = 10 * time.Second

type SendResult struct {
	OK  bool   `json:"ok"`
	Err string `json:"error,omitempty"`
}

type Mailer struct {
	cfg         config.SMTPConfig
	transcripts *TranscriptStore
}

func New(cfg config.SMTPConfig, transcripts *TranscriptStore) *Mailer {
	return &Mailer{cfg: cfg, transcripts: transcripts}
}

// Send delivers one message. Failures reduce to an ok flag plus a short
// human-readable message; the caller aggregates, it does not branch on kind.
func (m *Mailer) Send(to, subject, htmlBody string, embed *Embed) SendResult {
	t := &Transcript{
		Time:     time.Now(),
		To:       to,
		Subject:  subject,
		Host:     m.cfg.Host,
		Port:     m.cfg.Port,
		Auth:     m.cfg.Auth,
		Username: maskSecret(m.cfg.User),
		From:     m.cfg.FromEmail,
	}
	err := m.send(to, subject, htmlBody, embed, t)
	if err != nil {
		t.Result = "FAIL"
		t.LastError = err.Error()
	} else {
		t.Result = "OK"
	}
	if m.transcripts != nil {
		m.transcripts.Record(t)
	}

	if err != nil {
		return SendResult{OK: false, Err: err.Error()}
	}
	return SendResult{OK: true}
}

func (m *Mailer) send(to, subject, htmlBody string, embed *Embed, t *Transcript) error {
	msg, err := buildMessage(m.cfg.FromName, m.cfg.FromEmail, to, subject, htmlBody, embed)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	client, err := m.dial(addr, t)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer client.Quit()

	// Port 465 already negotiated TLS during dial; everything else upgrades.
	if m.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			t.debugf(m.cfg.DebugLevel, 1, "STARTTLS")
			tlsCfg := &tls.Config{ServerName: m.cfg.Host}
			if err := client.StartTLS(tlsCfg); err != nil {
				return fmt.Errorf("starttls failed: %w", err)
			}
		}
	}

	if m.cfg.Auth && m.cfg.User != "" {
		t.debugf(m.cfg.DebugLevel, 1, "AUTH as %s", maskSecret(m.cfg.User))
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth failed: %w", err)
		}
	}

	t.debugf(m.cfg.DebugLevel, 2, "MAIL FROM:<%s>", m.cfg.FromEmail)
	if err := client.Mail(m.cfg.FromEmail); err != nil {
		return fmt.Errorf("sender rejected: %w", err)
	}
	t.debugf(m.cfg.DebugLevel, 2, "RCPT TO:<%s>", to)
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("recipient rejected: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}
	t.debugf(m.cfg.DebugLevel, 1, "message accepted (%d bytes)", len(msg))

	return nil
}

// dial opens the connection with a bounded timeout. Port 465 means implicit
// TLS; anything else dials plain and leaves STARTTLS to the caller.
func (m *Mailer) dial(addr string, t *Transcript) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: connectTimeout}
	if m.cfg.Port == 465 {
		t.debugf(m.cfg.DebugLevel, 1, "dialing %s (implicit TLS)", addr)
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.cfg.Host})
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, m.cfg.Host)
	}
	t.debugf(m.cfg.DebugLevel, 1, "dialing %s", addr)
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return smtp.NewClient(conn, m.cfg.Host)
}
