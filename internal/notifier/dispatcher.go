package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/Lutefd/logpulse/internal/metrics"
	"github.com/Lutefd/logpulse/internal/model"
	log "github.com/sirupsen/logrus"
)

// Dispatcher fans an alert out to the subscribed recipients of a project.
// Each delivery runs on its own goroutine; failures are logged and counted.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	counters *metrics.Counters
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, counters *metrics.Counters) *Dispatcher {
	return &Dispatcher{notifier: n, timeout: timeout, counters: counters}
}

// Dispatch schedules one delivery per recipient whose tags intersect tags and
// returns how many were scheduled.
func (d *Dispatcher) Dispatch(project model.Project, alert model.Alert, tags []string) int {
	recipients := project.Notify.RecipientsFor(tags)
	for _, r := range recipients {
		d.wg.Add(1)
		go d.deliver(r, alert)
	}
	return len(recipients)
}

func (d *Dispatcher) deliver(recipient model.Recipient, alert model.Alert) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.notifier.Send(ctx, recipient, alert); err != nil {
		log.WithFields(log.Fields{
			"recipient": recipient.ID,
			"project":   alert.ProjectID,
		}).Errorf("failed to deliver notification: %v", err)
		d.counters.Notifications.Inc(string(alert.Source), "failed")
		return
	}
	d.counters.Notifications.Inc(string(alert.Source), "sent")
}

// Wait blocks until every scheduled delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
