package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-management-service/pkg/mailer"
)

func TestRenderKnownTemplates(t *testing.T) {
	data := mailer.EmailData{
		Name:       "Ada",
		Email:      "ada@example.com",
		AppName:    "testapp",
		ActionURL:  "https://example.com/confirm?token=abc",
		ExpiresIn:  "24 hours",
		SupportURL: "https://example.com/support",
	}

	for _, name := range []string{VerifyEmail, AccountLocked, ResetPassword} {
		subject, text, html, err := Render(name, data)
		require.NoError(t, err, "template %s", name)
		assert.NotEmpty(t, subject)
		assert.Contains(t, text, "Ada")
		assert.Contains(t, html, "Ada")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nonexistent", mailer.EmailData{})
	assert.Error(t, err)
}
