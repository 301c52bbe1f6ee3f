package notifier

import (
	"context"

	"github.com/Lutefd/logpulse/internal/model"
	log "github.com/sirupsen/logrus"
)

// LogNotifier writes alerts to the process log. Used when no delivery channel is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, recipient model.Recipient, alert model.Alert) error {
	log.WithFields(log.Fields{
		"recipient": recipient.ID,
		"project":   alert.ProjectName,
		"source":    alert.Source,
	}).Warn(alert.Title)
	return nil
}
