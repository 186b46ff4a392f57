package notify

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"time"
)

type SMTPCfg struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func LoadSMTP() (*SMTPCfg, error) {
	cfg := &SMTPCfg{
		Host: os.Getenv("SMTP_HOST"),
		Port: os.Getenv("SMTP_PORT"),
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
		From: os.Getenv("SMTP_FROM"),
	}
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.User == "" || cfg.Pass == "" || cfg.From == "" {
		return nil, fmt.Errorf("SMTP not configured")
	}
	return cfg, nil
}

// Mailer sends interview notifications over SMTP.
type Mailer struct {
	cfg *SMTPCfg
}

func NewMailer(cfg *SMTPCfg) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendScheduled emails the candidate about a newly scheduled interview.
func (m *Mailer) SendScheduled(to, candidateName, interviewTitle, organizerName string, scheduledAt, expiresAt time.Time) error {
	subject := "Interview Scheduled: " + interviewTitle
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"%s has scheduled an interview for you.\n\n"+
			"Interview: %s\n"+
			"Scheduled for: %s\n"+
			"Link expires: %s\n\n"+
			"Log in to your dashboard to start the interview before the link expires.\n\n"+
			"Good luck!\n",
		candidateName,
		organizerName,
		interviewTitle,
		scheduledAt.Format("Mon, 02 Jan 2006 15:04 MST"),
		expiresAt.Format("Mon, 02 Jan 2006 15:04 MST"),
	)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	cfg := m.cfg
	addr := cfg.Host + ":" + cfg.Port
	auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	msg := []byte("From: \"takeInt\" <" + cfg.From + ">\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(addr, auth, cfg.From, []string{to}, msg); err != nil {
		// Port 465 expects implicit TLS, which smtp.SendMail cannot do.
		if cfg.Port == "465" {
			return m.sendImplicitTLS(addr, auth, to, msg)
		}
		return err
	}
	return nil
}

func (m *Mailer) sendImplicitTLS(addr string, auth smtp.Auth, to string, msg []byte) error {
	cfg := m.cfg
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()
	if err := c.Auth(auth); err != nil {
		return err
	}
	if err := c.Mail(cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		return err
	}
	return wc.Close()
}
