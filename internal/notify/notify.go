package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Shortlist is the data of a shortlist email.
type Shortlist struct {
	Email    string
	FullName string
	JobID    string
	JobTitle string
	Company  string
}

// Notifier tells a candidate their resume was shortlisted.
type Notifier interface {
	NotifyShortlisted(ctx context.Context, s Shortlist) error
}

// Noop discards notifications.
type Noop struct{}

func (Noop) NotifyShortlisted(ctx context.Context, s Shortlist) error { return nil }

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends notifications through an SMTP relay.
type SMTPNotifier struct {
	cfg              SMTPConfig
	frontendBaseURL  string
	sendToCandidates bool

	// sendMail is smtp.SendMail outside tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig, frontendBaseURL string, sendToCandidates bool) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPNotifier{
		cfg:              cfg,
		frontendBaseURL:  strings.TrimRight(frontendBaseURL, "/"),
		sendToCandidates: sendToCandidates,
		sendMail:         smtp.SendMail,
	}
}

var shortlistHTML = template.Must(template.New("shortlist").Parse(`<div style="font-family: Arial, Helvetica, sans-serif; background: #f9fafb; padding: 24px;">
  <div style="max-width:600px;margin:0 auto;border-radius:8px;overflow:hidden;border:1px solid #e6e6f0;">
    <div style="background:#6d28d9;padding:20px;color:#fff;text-align:center;">
      <h1 style="margin:0;font-size:20px;">AI Cruit</h1>
    </div>
    <div style="background:#fff;padding:24px;color:#111;">
      <p style="margin:0 0 12px;font-size:16px;">{{.Greeting}}</p>
      <p style="margin:0 0 16px;font-size:14px;color:#333;">{{.Body}}</p>
      <div style="text-align:center;margin:18px 0;">
        <a href="{{.SignupURL}}" style="display:inline-block;padding:12px 20px;background:#6d28d9;color:#fff;border-radius:6px;text-decoration:none;font-weight:600;">Sign up on AI Cruit</a>
      </div>
      <p style="font-size:12px;color:#777;margin:0;">If you have any questions, reply to this email or contact the hiring team.</p>
    </div>
    <div style="background:#fafafa;padding:12px;text-align:center;font-size:12px;color:#777;">&copy; {{.Year}} AI Cruit</div>
  </div>
</div>`))

type shortlistView struct {
	Greeting  string
	Body      string
	SignupURL string
	Year      int
}

// SignupURL is the link a shortlisted candidate follows to create an account.
func (n *SMTPNotifier) SignupURL(jobID string) string {
	u := n.frontendBaseURL + "/signup"
	if jobID != "" {
		u += "?jobId=" + url.QueryEscape(jobID)
	}
	return u
}

// NotifyShortlisted sends the shortlist email, unless candidate
// notifications are switched off.
func (n *SMTPNotifier) NotifyShortlisted(ctx context.Context, s Shortlist) error {
	logger := log.WithFields(log.Fields{"to": s.Email, "job_id": s.JobID})
	if !n.sendToCandidates {
		logger.Info("Candidate notifications are disabled, skipping shortlist email")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.buildMessage(s)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := n.cfg.Host + ":" + strconv.Itoa(n.cfg.Port)
	if err := n.sendMail(addr, auth, n.cfg.From, []string{s.Email}, msg); err != nil {
		return fmt.Errorf("send shortlist email to %s: %w", s.Email, err)
	}
	logger.Info("Sent shortlist notification")
	return nil
}

func (n *SMTPNotifier) buildMessage(s Shortlist) ([]byte, error) {
	greeting := "Hello"
	if name := strings.TrimSpace(s.FullName); name != "" {
		greeting += ", " + name
	}
	view := shortlistView{
		Greeting: greeting,
		Body: fmt.Sprintf("Your resume has been shortlisted for the role of %q at %q. "+
			"To remain informed about the recruitment process, please sign up at AI Cruit.", s.JobTitle, s.Company),
		SignupURL: n.SignupURL(s.JobID),
		Year:      time.Now().Year(),
	}

	var htmlBody bytes.Buffer
	if err := shortlistHTML.Execute(&htmlBody, view); err != nil {
		return nil, fmt.Errorf("render shortlist email: %w", err)
	}
	textBody := fmt.Sprintf("%s\n\n%s\n\nSign up: %s", view.Greeting, view.Body, view.SignupURL)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	subject := fmt.Sprintf("Your resume has been shortlisted - %s at %s", s.JobTitle, s.Company)

	fmt.Fprintf(&buf, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", s.Email)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	for _, part := range []struct {
		contentType string
		body        []byte
	}{
		{"text/plain; charset=utf-8", []byte(textBody)},
		{"text/html; charset=utf-8", htmlBody.Bytes()},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {part.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.body); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	_ Notifier = (*SMTPNotifier)(nil)
	_ Notifier = Noop{}
)
