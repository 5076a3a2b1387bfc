package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

var _ coursecart.Notifier = Email{}

type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmail(host, username, password, from string, port int) Email {
	return Email{host, port, username, password, from, smtp.SendMail}
}

func (e Email) Notify(ctx context.Context, notification coursecart.Notification) error {
	if notification.To == "" {
		return nil
	}

	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	msg := []byte(fmt.Sprintf(`From: %s
To: %s
Subject: [Course Cart] %s

%s

Thanks for using Course Cart.`, e.from, notification.To, notification.Subject, notification.Body))

	err := e.send(fmt.Sprintf("%s:%d", e.host, e.port), auth, e.from, []string{notification.To}, msg)
	if err != nil {
		return fmt.Errorf("failed to notify %s: %w", notification.To, err)
	}
	log.Info().Str("to", notification.To).Msg("notification email sent")

	return nil
}
