package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/function61/gokit/logex"
	"github.com/idlemon/idlemon/pkg/imstate"
	"github.com/idlemon/idlemon/pkg/prettyduration"
)

const helpText = "Commands: status (s) | sub | unsub | max <duration> | who | whoami | help"

const maxUsageHint = "Usage: max <duration>, e.g. max 24h (units: s m h d)"

type commandKind int

const (
	cmdUnknown commandKind = iota
	cmdStatus
	cmdSubscribe
	cmdUnsubscribe
	cmdSetMaxIdle
	cmdWho
	cmdWhoami
	cmdHelp
)

func (k commandKind) String() string {
	switch k {
	case cmdStatus:
		return "status"
	case cmdSubscribe:
		return "sub"
	case cmdUnsubscribe:
		return "unsub"
	case cmdSetMaxIdle:
		return "max"
	case cmdWho:
		return "who"
	case cmdWhoami:
		return "whoami"
	case cmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

type command struct {
	kind commandKind
	arg  string // duration spec for cmdSetMaxIdle, unused otherwise
}

// case-folds and trims the raw text, then dispatches on the first
// whitespace-delimited token
func parseCommand(rawText string) command {
	fields := strings.Fields(strings.ToLower(rawText))
	if len(fields) == 0 {
		return command{kind: cmdUnknown}
	}

	switch fields[0] {
	case "status", "s":
		return command{kind: cmdStatus}
	case "sub":
		return command{kind: cmdSubscribe}
	case "unsub":
		return command{kind: cmdUnsubscribe}
	case "max":
		arg := ""
		if len(fields) >= 2 {
			arg = fields[1]
		}
		return command{kind: cmdSetMaxIdle, arg: arg}
	case "who":
		return command{kind: cmdWho}
	case "whoami":
		return command{kind: cmdWhoami}
	case "help":
		return command{kind: cmdHelp}
	default:
		return command{kind: cmdUnknown}
	}
}

// commandInterpreter maps inbound (sender, text) messages to tracker
// mutations and replies. Mutations persist before any reply goes out, so a
// crash between the two loses nothing (the reply is re-derivable).
type commandInterpreter struct {
	tracker  *imstate.Tracker
	notifier *notifier
	now      func() time.Time
	logl     *logex.Leveled
}

func newCommandInterpreter(tracker *imstate.Tracker, notifier *notifier, logl *logex.Leveled) *commandInterpreter {
	return &commandInterpreter{
		tracker:  tracker,
		notifier: notifier,
		now:      time.Now,
		logl:     logl,
	}
}

// the returned error means persistence failed - a bad command is not an error
func (c *commandInterpreter) Handle(sender string, rawText string) error {
	cmd := parseCommand(rawText)

	metricCommandsHandled.WithLabelValues(cmd.kind.String()).Inc()
	c.logl.Debug.Printf("%s from %s", cmd.kind, sender)

	switch cmd.kind {
	case cmdStatus:
		c.notifier.send(sender, c.tracker.StatusText(c.now()))

	case cmdSubscribe:
		if err := c.tracker.AddSubscriber(sender); err != nil {
			return err
		}

		c.notifier.send(sender, fmt.Sprintf(
			"You are subscribed to idle notifications (%d subscriber(s) total)",
			len(c.tracker.Subscribers())))

	case cmdUnsubscribe:
		if err := c.tracker.RemoveSubscriber(sender); err != nil {
			return err
		}

		c.notifier.send(sender, "You are no longer subscribed to idle notifications")

	case cmdSetMaxIdle:
		seconds, err := prettyduration.Parse(cmd.arg)
		if err != nil {
			// state untouched; hint goes to the sender only
			c.notifier.send(sender, maxUsageHint)
			return nil
		}

		if err := c.tracker.SetMaxIdle(seconds); err != nil {
			return err
		}

		c.notifier.sendToAll(c.tracker.Subscribers(), fmt.Sprintf(
			"New max idle is %s, set by %s", cmd.arg, sender))

	case cmdWho:
		c.notifier.send(sender, strings.Join(c.tracker.Subscribers(), " "))

	case cmdWhoami:
		c.notifier.send(sender, sender)

	case cmdHelp:
		// only subscribed senders get the summary (see DESIGN.md)
		if c.tracker.IsSubscriber(sender) {
			c.notifier.send(sender, helpText)
		}

	case cmdUnknown:
		// deliberate: unrecognized input gets no reply at all
	}

	return nil
}
