package smtp

import (
	"errors"
	"fmt"

	"auction-stream/internal/config"
	"auction-stream/pkg/logger"

	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned when SMTP credentials are missing; the
// notification counts the recipient as not sent and moves on.
var ErrNotConfigured = errors.New("smtp credentials not configured")

// GomailMailer sends stream-started notifications over SMTP with a
// plain-text body and an HTML alternative.
type GomailMailer struct {
	dialer    *gomail.Dialer
	from      string
	streamURL string
	enabled   bool
	log       logger.Logger
}

func NewGomailMailer(cfg config.SMTPConfig, log logger.Logger) *GomailMailer {
	enabled := cfg.User != "" && cfg.Password != ""
	if !enabled {
		log.Warn("SMTP credentials not configured, stream notifications disabled")
	}

	return &GomailMailer{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:      cfg.From,
		streamURL: cfg.StreamURL,
		enabled:   enabled,
		log:       log,
	}
}

func (m *GomailMailer) SendStreamStarted(to, name string) error {
	if !m.enabled {
		return ErrNotConfigured
	}
	if name == "" {
		name = "there"
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "The stream has started!")
	msg.SetBody("text/plain", m.plainBody(name))
	msg.AddAlternative("text/html", m.htmlBody(name))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return err
	}

	m.log.Info("Stream notification sent", "to", to)
	return nil
}

func (m *GomailMailer) plainBody(name string) string {
	return fmt.Sprintf(`Hi %s!

The stream has just started. Join now and place your bid:
%s

Don't miss out — the auction is live only while the stream is on.
`, name, m.streamURL)
}

func (m *GomailMailer) htmlBody(name string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;background:#0a0a0c;font-family:sans-serif;">
  <div style="max-width:520px;margin:0 auto;background:#161618;border-radius:12px;padding:32px;">
    <h1 style="color:#fff;font-size:22px;">The stream has started!</h1>
    <p style="color:#e0e0e0;font-size:15px;">Hi <strong>%s</strong>!</p>
    <p style="color:#e0e0e0;font-size:15px;">
      The stream has just started. Join now to see the items and take part in the auction.
    </p>
    <p style="text-align:center;">
      <a href="%s" style="display:inline-block;background:#e63946;color:#fff;
         text-decoration:none;padding:12px 32px;border-radius:8px;font-weight:600;">
        Watch the stream
      </a>
    </p>
    <p style="color:#8a8a8e;font-size:13px;">
      Don't miss out — the auction is live only while the stream is on.
    </p>
  </div>
</body>
</html>`, name, m.streamURL)
}
