package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestNotifier(sendToCandidates bool) (*SMTPNotifier, *[]sentMail) {
	n := NewSMTPNotifier(SMTPConfig{Host: "smtp.test", Username: "bot@aicruit.io"}, "https://app.aicruit.io/", sendToCandidates)
	var sent []sentMail
	n.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return n, &sent
}

func TestSMTPNotifier_NotifyShortlisted(t *testing.T) {
	n, sent := newTestNotifier(true)

	err := n.NotifyShortlisted(context.Background(), Shortlist{
		Email:    "jane@corp.io",
		FullName: "Jane Doe",
		JobID:    "job-1",
		JobTitle: "Backend Engineer",
		Company:  "Acme",
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	m := (*sent)[0]
	assert.Equal(t, "smtp.test:587", m.addr)
	assert.Equal(t, "bot@aicruit.io", m.from)
	assert.Equal(t, []string{"jane@corp.io"}, m.to)
	assert.Contains(t, m.msg, "Subject: Your resume has been shortlisted - Backend Engineer at Acme")
	assert.Contains(t, m.msg, "Hello, Jane Doe")
	assert.Contains(t, m.msg, "Sign up: https://app.aicruit.io/signup?jobId=job-1")
	assert.Contains(t, m.msg, "multipart/alternative")
}

func TestSMTPNotifier_DisabledForCandidates(t *testing.T) {
	n, sent := newTestNotifier(false)
	require.NoError(t, n.NotifyShortlisted(context.Background(), Shortlist{Email: "jane@corp.io"}))
	assert.Empty(t, *sent)
}

func TestSMTPNotifier_SendError(t *testing.T) {
	n, _ := newTestNotifier(true)
	n.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("relay down") }
	err := n.NotifyShortlisted(context.Background(), Shortlist{Email: "jane@corp.io"})
	assert.ErrorContains(t, err, "relay down")
}

func TestSMTPNotifier_SignupURL(t *testing.T) {
	n, _ := newTestNotifier(true)
	assert.Equal(t, "https://app.aicruit.io/signup", n.SignupURL(""))
	assert.Equal(t, "https://app.aicruit.io/signup?jobId=a+b", n.SignupURL("a b"))
}
