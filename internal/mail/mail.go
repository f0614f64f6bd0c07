// Package mail provides the outbound transactional email port for the
// account lifecycle service and its SMTP implementation.
package mail

import (
	"bytes"
	"html/template"
)

// Mailer is the outbound email interface. The lifecycle service only depends
// on this; tests substitute a recording fake.
type Mailer interface {
	// IsEnabled returns whether a mail server is configured.
	IsEnabled() bool

	// SendVerification sends the account verification email. The link embeds
	// the caller-supplied frontend base URL and the one-time code.
	SendVerification(email, firstName, baseURL, code string) error

	// SendPasswordReset sends the password reset email.
	SendPasswordReset(email, baseURL, code string) error
}

const verificationSubject = "Account verification"

const verificationTemplateRaw = `
<div style="max-width: 500px; margin: 50px auto; padding: 30px; font-family: Arial, sans-serif; color: #333;">
  <h1 style="text-align: center;">Hello {{.FirstName}}!</h1>
  <p style="text-align: center;">Thanks for signing up. To verify your account, click the link below:</p>
  <div style="text-align: center;">
    <a href="{{.Link}}" style="display: inline-block; padding: 14px 28px; text-decoration: none; font-weight: bold;">Verify account</a>
  </div>
</div>
`

const passwordResetSubject = "Password change request"

const passwordResetTemplateRaw = `
<div style="max-width: 500px; margin: 50px auto; padding: 30px; font-family: Arial, sans-serif; color: #333;">
  <h1 style="text-align: center;">We received a password change request</h1>
  <p style="text-align: center;">If you did not make this request, ignore and delete this email. To change your password, click the link below:</p>
  <div style="text-align: center;">
    <a href="{{.Link}}" style="display: inline-block; padding: 14px 28px; text-decoration: none; font-weight: bold;">Change password</a>
  </div>
</div>
`

var (
	verificationTemplate  = template.Must(template.New("verification").Parse(verificationTemplateRaw))
	passwordResetTemplate = template.Must(template.New("password_reset").Parse(passwordResetTemplateRaw))
)

func templateString(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
