package email

import (
	"context"
	"errors"
	"testing"
	"time"

	mail "github.com/go-mail/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
	"github.com/dropDatabas3/hellojohn-projects/internal/store/adapters/memory"
)

type fakeSender struct {
	sent []Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

type fakeDialer struct {
	msgs []*mail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*mail.Message) error {
	d.msgs = append(d.msgs, m...)
	return d.err
}

var platform = SMTPConfig{Host: "smtp.platform.io", Port: 587, FromEmail: "noreply@platform.io"}

func seedProject(t *testing.T, s *memory.Store, id string, e repository.EmailServiceConfig) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Projects().CreateProject(ctx, &repository.Project{
			ID: id, DisplayName: "Acme", Config: repository.ProjectConfig{ID: id + "-cfg"},
		}); err != nil {
			return err
		}
		return tx.Projects().SetEmailService(ctx, id+"-cfg", e)
	}))
}

func newTestService(s repository.Store, sender Sender) (*Service, *[]projects.EmailServiceVariant) {
	var seen []projects.EmailServiceVariant
	svc := NewService(s, platform)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	svc.senderFor = func(v projects.EmailServiceVariant, _ SMTPConfig) (Sender, error) {
		seen = append(seen, v)
		return sender, nil
	}
	return svc, &seen
}

func TestSenderFor(t *testing.T) {
	s, err := SenderFor(projects.SharedEmailService{}, platform)
	require.NoError(t, err)
	assert.Equal(t, "smtp.platform.io", s.Config().Host)
	assert.Equal(t, "auto", s.Config().TLSMode)

	_, err = SenderFor(projects.SharedEmailService{}, SMTPConfig{})
	assert.ErrorIs(t, err, ErrPlatformSMTPNotConfigured)

	s, err = SenderFor(projects.StandardEmailService{
		Host: "smtp.acme.com", Port: 465, Username: "u", Password: "p", SenderEmail: "a@acme.com", SenderName: "Acme",
	}, platform)
	require.NoError(t, err)
	assert.Equal(t, SMTPConfig{
		Host: "smtp.acme.com", Port: 465, Username: "u", Password: "p",
		FromEmail: "a@acme.com", FromName: "Acme", TLSMode: "auto",
	}, s.Config())
}

func TestSMTPSender_BuildsMultipartMessage(t *testing.T) {
	d := &fakeDialer{}
	s := NewSMTPSender(SMTPConfig{Host: "h", Port: 25, FromEmail: "a@acme.com", FromName: "Acme"})
	s.newDial = func(SMTPConfig) dialer { return d }

	require.NoError(t, s.Send(context.Background(), Message{To: "b@acme.com", Subject: "hi", TextBody: "t", HTMLBody: "<p>h</p>"}))
	require.Len(t, d.msgs, 1)
	assert.Equal(t, []string{"b@acme.com"}, d.msgs[0].GetHeader("To"))
	assert.Equal(t, []string{"hi"}, d.msgs[0].GetHeader("Subject"))
	assert.Equal(t, []string{`"Acme" <a@acme.com>`}, d.msgs[0].GetHeader("From"))

	d.err = errors.New("connection refused")
	err := s.Send(context.Background(), Message{To: "b@acme.com"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSendTest_UsesProjectVariant(t *testing.T) {
	st := memory.New()
	seedProject(t, st, "p1", repository.EmailServiceConfig{Standard: &repository.StandardEmailServiceConfig{
		Host: "smtp.acme.com", Port: 465, Username: "u", Password: "p", SenderEmail: "a@acme.com", SenderName: "Acme",
	}})
	seedProject(t, st, "p2", repository.EmailServiceConfig{Shared: &repository.SharedEmailServiceConfig{}})

	sender := &fakeSender{}
	svc, seen := newTestService(st, sender)

	kind, err := svc.SendTest(context.Background(), "p1", "dev@acme.com")
	require.NoError(t, err)
	assert.Equal(t, projects.KindStandard, kind)

	kind, err = svc.SendTest(context.Background(), "p2", "dev@acme.com")
	require.NoError(t, err)
	assert.Equal(t, projects.KindShared, kind)

	require.Len(t, *seen, 2)
	assert.Equal(t, "smtp.acme.com", (*seen)[0].(projects.StandardEmailService).Host)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "dev@acme.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "Acme")
}

func TestSendTest_Errors(t *testing.T) {
	st := memory.New()
	seedProject(t, st, "p1", repository.EmailServiceConfig{Shared: &repository.SharedEmailServiceConfig{}})
	svc, _ := newTestService(st, &fakeSender{})

	_, err := svc.SendTest(context.Background(), "p1", "not-an-email")
	assert.True(t, projects.IsValidation(err))

	_, err = svc.SendTest(context.Background(), "missing", "dev@acme.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// proyecto sin email config: invariante
	require.NoError(t, st.Projects().CreateProject(context.Background(), &repository.Project{
		ID: "p3", DisplayName: "Broken", Config: repository.ProjectConfig{ID: "p3-cfg"},
	}))
	_, err = svc.SendTest(context.Background(), "p3", "dev@acme.com")
	assert.True(t, projects.IsInvariant(err))

	failing, _ := newTestService(st, &fakeSender{err: errors.New("smtp down")})
	_, err = failing.SendTest(context.Background(), "p1", "dev@acme.com")
	assert.ErrorContains(t, err, "smtp down")
}
