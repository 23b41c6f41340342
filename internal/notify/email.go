package notify

import (
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
)

// EmailSender delivers escalation notices over SMTP. It implements Gateway
// for the email channel.
type EmailSender struct {
	smtpAddr   string
	auth       smtp.Auth
	from       string
	fromName   string
	ackBaseURL string
}

func NewEmailSender(host string, port int, username string, password string, from string, ackBaseURL string) *EmailSender {
	return &EmailSender{
		smtpAddr:   fmt.Sprintf("%s:%d", host, port),
		auth:       smtp.PlainAuth("", username, password, host),
		from:       from,
		fromName:   "Rollcall",
		ackBaseURL: ackBaseURL,
	}
}

func (sender *EmailSender) Send(intent Intent) error {
	subject, body := renderEmail(intent, sender.ackBaseURL)

	mail := mailyak.New(sender.smtpAddr, sender.auth)
	mail.From(sender.from)
	mail.FromName(sender.fromName)
	mail.To(intent.Recipient)
	mail.Subject(subject)
	mail.Plain().Set(body)

	if err := mail.Send(); err != nil {
		return fmt.Errorf("send escalation email to %s: %w", intent.Recipient, err)
	}
	return nil
}

func renderEmail(intent Intent, ackBaseURL string) (string, string) {
	subject := fmt.Sprintf("Attendance escalation: %s (%s)", intent.UserName, intent.Workday)
	body := fmt.Sprintf(
		"%s has not logged in on %s. The expected login time was %s.\n\nAcknowledge this escalation:\n%s\n\nThe link works once.\n",
		intent.UserName, intent.Workday, intent.Expected, AckLink(ackBaseURL, intent.AckToken),
	)
	return subject, body
}
