package main

import (
	"github.com/function61/gokit/logex"
)

type sendFn func(recipient string, text string) error

// notifier fans text messages out to recipients. Delivery is best-effort:
// a failed send is logged and must not block notifying the remaining
// recipients, so errors never propagate to the caller.
type notifier struct {
	sendOne sendFn
	logl    *logex.Leveled
}

func newNotifier(sendOne sendFn, logl *logex.Leveled) *notifier {
	return &notifier{
		sendOne: sendOne,
		logl:    logl,
	}
}

func (n *notifier) send(recipient string, text string) {
	if err := n.sendOne(recipient, text); err != nil {
		metricDeliveryFailures.Inc()
		n.logl.Error.Printf("send to %s: %v", recipient, err)
		return
	}

	metricNotificationsSent.Inc()
}

func (n *notifier) sendToAll(recipients []string, text string) {
	for _, recipient := range recipients {
		n.send(recipient, text)
	}
}
