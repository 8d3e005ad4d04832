package main

import (
	"context"
	"fmt"
	"time"

	"github.com/function61/gokit/ezhttp"
	"github.com/function61/gokit/logex"
	"github.com/idlemon/idlemon/pkg/imstate"
)

const agentPushTimeout = 5 * time.Second

// monitorLoop is the background task re-evaluating the machine's state once
// per tick. The operating mode is fixed at startup:
//
//   - standalone (no agent URL): classify on each tick and broadcast to
//     subscribers when - and only when - the classification changes.
//   - agent (agent URL configured): measure local idle time and forward it to
//     the remote collector's /update endpoint; classification happens there.
type monitorLoop struct {
	tracker     *imstate.Tracker
	notifier    *notifier
	agentURL    string // empty = standalone mode
	interval    time.Duration
	measureIdle idleMeasurerFn
	logl        *logex.Leveled

	lastKnown imstate.Classification
}

func newMonitorLoop(
	tracker *imstate.Tracker,
	notifier *notifier,
	agentURL string,
	interval time.Duration,
	logl *logex.Leveled,
) *monitorLoop {
	return &monitorLoop{
		tracker:     tracker,
		notifier:    notifier,
		agentURL:    agentURL,
		interval:    interval,
		measureIdle: measureLocalIdle,
		logl:        logl,
		lastKnown:   imstate.ClassificationOK,
	}
}

// cancellation is observed at tick boundaries only, so an in-flight fan-out
// always finishes before the task exits
func (m *monitorLoop) task(ctx context.Context, _ string) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.tick(ctx, time.Now())
		}
	}
}

func (m *monitorLoop) tick(ctx context.Context, now time.Time) {
	metricLoopTicks.Inc()

	if m.agentURL != "" {
		m.forwardLocalIdle(ctx)
		return
	}

	classification, message := m.tracker.Evaluate(now)
	if classification == m.lastKnown {
		return
	}

	m.logl.Info.Printf("%s -> %s: %s", m.lastKnown, classification, message)

	m.notifier.sendToAll(m.tracker.Subscribers(), message)

	m.lastKnown = classification
}

// agent mode: push this machine's idle seconds to the remote collector.
// failure is non-fatal - log and wait for the next tick.
func (m *monitorLoop) forwardLocalIdle(ctx context.Context) {
	idleSeconds, err := m.measureIdle()
	if err != nil {
		m.logl.Error.Printf("measure local idle: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, agentPushTimeout)
	defer cancel()

	resp, err := ezhttp.Get(ctx, fmt.Sprintf("%s/update?idle_seconds=%d", m.agentURL, idleSeconds))
	if err != nil {
		m.logl.Error.Printf("agent endpoint unreachable: %v", err)
		return
	}
	resp.Body.Close()

	m.logl.Debug.Printf("forwarded idle_seconds=%d", idleSeconds)
}
