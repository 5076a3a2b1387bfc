package notifier

import (
	"fmt"

	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
	"github.com/jacobmichels/Course-Cart-Go/config"
)

func New(cfg config.Notifications) (coursecart.Notifier, error) {
	switch cfg.Type {
	case "", "noop":
		log.Info().Msg("notifications disabled")
		return NewNoop(), nil
	case "smtp":
		log.Info().Str("host", cfg.EmailSmtp.Host).Msg("creating smtp notifier")
		return NewEmail(cfg.EmailSmtp.Host, cfg.EmailSmtp.Username, cfg.EmailSmtp.Password, cfg.EmailSmtp.From, cfg.EmailSmtp.Port), nil
	case "sendgrid":
		if cfg.Sendgrid.APIKey == "" {
			return nil, fmt.Errorf("sendgrid notifier needs an api key")
		}
		log.Info().Msg("creating sendgrid notifier")
		return NewSendgrid(cfg.Sendgrid.APIKey, cfg.Sendgrid.From), nil
	default:
		return nil, fmt.Errorf("invalid notification type %q", cfg.Type)
	}
}
