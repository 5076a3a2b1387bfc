package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

const sendgridEndpoint = "/v3/mail/send"

var _ coursecart.Notifier = Sendgrid{}

type Sendgrid struct {
	key  string
	from *sgmail.Email
	host string
}

func NewSendgrid(key, from string) Sendgrid {
	return Sendgrid{key, sgmail.NewEmail("Course Cart", from), "https://api.sendgrid.com"}
}

func (s Sendgrid) Notify(ctx context.Context, notification coursecart.Notification) error {
	if notification.To == "" {
		return nil
	}

	p := sgmail.NewPersonalization()
	p.Subject = "[Course Cart] " + notification.Subject
	p.AddTos(sgmail.NewEmail("", notification.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", notification.Body))

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to notify %s: %w", notification.To, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("failed to notify %s: sendgrid responded %d: %s", notification.To, res.StatusCode, res.Body)
	}
	log.Info().Str("to", notification.To).Msg("notification email sent")

	return nil
}
