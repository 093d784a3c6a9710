package email

import (
	"context"
	"net/smtp"
	"testing"

	"go-jobboard-backend/config"
	"go-jobboard-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyStatusChange(t *testing.T) {
	svc := NewEmailService(&config.Config{
		SMTPHost:      "smtp.test",
		SMTPPort:      "587",
		SMTPUsername:  "user",
		SMTPPassword:  "pass",
		SMTPFromEmail: "noreply@test",
	})

	var gotTo []string
	var gotMsg string
	svc.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.test:587", addr)
		assert.Equal(t, "noreply@test", from)
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	err := svc.NotifyStatusChange(context.Background(), domain.StatusNotice{
		ApplicantEmail: "sam@example.com",
		ApplicantName:  "Sam",
		JobTitle:       "Go <Engineer>",
		Status:         domain.StatusHired,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sam@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Go &lt;Engineer&gt;")
	assert.Contains(t, gotMsg, "Congratulations")
}

func TestNotifyStatusChange_Unconfigured(t *testing.T) {
	svc := NewEmailService(&config.Config{})
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	assert.NoError(t, svc.NotifyStatusChange(context.Background(), domain.StatusNotice{}))
}
