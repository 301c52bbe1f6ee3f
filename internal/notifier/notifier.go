package notifier

import (
	"context"
	"errors"

	"github.com/Lutefd/logpulse/internal/model"
)

type Notifier interface {
	Send(ctx context.Context, recipient model.Recipient, alert model.Alert) error
}

// Multi delivers every alert through each notifier in turn.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, recipient model.Recipient, alert model.Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, recipient, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
