package notifier

import (
	"context"

	"github.com/rs/zerolog/log"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

var _ coursecart.Notifier = Noop{}

type Noop struct {
}

func NewNoop() Noop {
	return Noop{}
}

func (n Noop) Notify(ctx context.Context, notification coursecart.Notification) error {
	log.Debug().Str("to", notification.To).Str("subject", notification.Subject).Msg("notification dropped")
	return nil
}
