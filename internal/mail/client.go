package mail

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"

	"github.com/dajohi/goemail"
)

// client provides an SMTP client for sending emails from a preset address.
//
// client implements the Mailer interface.
type client struct {
	smtp        *goemail.SMTP
	mailName    string
	mailAddress string
	disabled    bool
}

var _ Mailer = (*client)(nil)

// NewClient returns a new SMTP mail client. Email is considered disabled if
// the host is empty; a disabled client silently drops all sends, which keeps
// development setups working without a mail server.
func NewClient(host, user, password, emailAddress string, skipVerify bool) (Mailer, error) {
	if host == "" {
		slog.Info("mail: disabled")
		return &client{disabled: true}, nil
	}

	h := fmt.Sprintf("smtps://%v:%v@%v", user, password, host)
	u, err := url.Parse(h)
	if err != nil {
		return nil, err
	}

	a, err := mail.ParseAddress(emailAddress)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: skipVerify,
	}

	smtp, err := goemail.NewSMTP(u.String(), tlsConfig)
	if err != nil {
		return nil, err
	}

	slog.Info("mail: enabled", "host", host, "from", a.Address)

	return &client{
		smtp:        smtp,
		mailName:    a.Name,
		mailAddress: a.Address,
	}, nil
}

// IsEnabled returns whether the mail server is enabled.
func (c *client) IsEnabled() bool {
	return !c.disabled
}

// SendVerification sends the account verification email.
func (c *client) SendVerification(email, firstName, baseURL, code string) error {
	body, err := templateString(verificationTemplate, struct {
		FirstName string
		Link      string
	}{
		FirstName: firstName,
		Link:      fmt.Sprintf("%s/verify_email/%s", baseURL, code),
	})
	if err != nil {
		return err
	}

	return c.send(verificationSubject, body, email)
}

// SendPasswordReset sends the password reset email.
func (c *client) SendPasswordReset(email, baseURL, code string) error {
	body, err := templateString(passwordResetTemplate, struct {
		Link string
	}{
		Link: fmt.Sprintf("%s/reset_password/%s", baseURL, code),
	})
	if err != nil {
		return err
	}

	return c.send(passwordResetSubject, body, email)
}

func (c *client) send(subject, body, recipient string) error {
	if c.disabled {
		return nil
	}

	msg := goemail.NewHTMLMessage(c.mailAddress, subject, body)
	msg.SetName(c.mailName)
	msg.AddBCC(recipient)

	return c.smtp.Send(msg)
}
