package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core"
	logsvc "github.com/trezcool/pal/services/logger"
)

func newMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Ada Lovelace", Address: "ada@pal.test"}},
		Cc:           []mail.Address{{Address: "cc@pal.test"}},
		Subject:      "Your instructor account has been approved",
		TemplateName: "instructor_approved",
	}
}

func TestConsoleService(t *testing.T) {
	svc := NewConsoleServiceMock(core.Conf, logsvc.NewNopLogger())

	tests := []struct {
		name string
		msg  *core.EmailMessage
		sent bool
	}{
		{name: "templated", msg: newMessage(), sent: true},
		{name: "plain body", msg: &core.EmailMessage{To: newMessage().To, Subject: "hi", BodyStr: "hello"}, sent: true},
		{name: "no recipients", msg: &core.EmailMessage{Subject: "hi", BodyStr: "hello"}},
		{name: "no content", msg: &core.EmailMessage{To: newMessage().To, Subject: "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(svc.SentMessages())
			svc.SendMessages(tt.msg)
			sent := svc.SentMessages()
			if tt.sent {
				require.Len(t, sent, before+1)
				assert.NotEmpty(t, sent[len(sent)-1].TextContent)
			} else {
				assert.Len(t, sent, before)
			}
		})
	}

	body, err := svc.format(svc.SentMessages()[0])
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: ["+core.Conf.AppName+"] Your instructor account has been approved")
	assert.Contains(t, body, "<ada@pal.test>")
	assert.Contains(t, body, "CC: <cc@pal.test>")
	assert.Contains(t, body, "text/html")
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(core.Conf, logsvc.NewNopLogger()).(*sendgridService)
	msg := newMessage()
	require.NoError(t, msg.Render())

	m := svc.prepare(*msg)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "["+core.Conf.AppName+"] "+msg.Subject, p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "ada@pal.test", p.To[0].Address)
	require.Len(t, p.CC, 1)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
	assert.Equal(t, core.Conf.DefaultFromEmail.Address, m.From.Address)
}
