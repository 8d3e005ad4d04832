package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/function61/gokit/assert"
	"github.com/idlemon/idlemon/pkg/imstate"
)

func newTestLoop(t *testing.T, agentURL string) (*monitorLoop, *sendCapturer) {
	t.Helper()

	tracker := imstate.NewTracker(
		imstate.NewFileStore(filepath.Join(t.TempDir(), "state.json")),
		t0,
		nil)

	capturer := &sendCapturer{}

	loop := newMonitorLoop(
		tracker,
		newNotifier(capturer.send, leveled(nil, false)),
		agentURL,
		1*time.Minute,
		leveled(nil, false))

	return loop, capturer
}

func TestNotifiesOnTransitionsOnly(t *testing.T) {
	ctx := context.Background()

	loop, capturer := newTestLoop(t, "")

	assert.Ok(t, loop.tracker.SetMaxIdle(3600))
	assert.Ok(t, loop.tracker.RecordUpdate(t0, t0))
	assert.Ok(t, loop.tracker.AddSubscriber("+15550001"))
	assert.Ok(t, loop.tracker.AddSubscriber("+15550002"))

	// still OK: no notifications, however often we tick
	loop.tick(ctx, t0.Add(10*time.Minute))
	loop.tick(ctx, t0.Add(20*time.Minute))
	assert.Assert(t, len(capturer.sent) == 0)

	// threshold passed with no fresh updates => STALE, one broadcast
	loop.tick(ctx, t0.Add(2*time.Hour))
	assert.Assert(t, len(capturer.sent) == 2)
	assert.EqualString(t, capturer.sent[0].Recipient, "+15550001")
	assert.EqualString(t, capturer.sent[1].Recipient, "+15550002")

	// unchanged classification, even re-evaluated every tick => silence
	loop.tick(ctx, t0.Add(2*time.Hour+1*time.Minute))
	loop.tick(ctx, t0.Add(3*time.Hour))
	assert.Assert(t, len(capturer.sent) == 2)

	// machine comes back => transition back to OK, one more broadcast
	now := t0.Add(4 * time.Hour)
	assert.Ok(t, loop.tracker.RecordUpdate(now, now))

	loop.tick(ctx, now.Add(1*time.Minute))
	assert.Assert(t, len(capturer.sent) == 4)
	assert.EqualString(t, capturer.sent[2].Text, "Active (last update 60s ago)")
}

func TestStaleWinsOverIdle(t *testing.T) {
	ctx := context.Background()

	loop, capturer := newTestLoop(t, "")

	assert.Ok(t, loop.tracker.SetMaxIdle(3600))
	assert.Ok(t, loop.tracker.RecordUpdate(t0, t0))
	assert.Ok(t, loop.tracker.AddSubscriber("+15550001"))

	// both idle_since and last_update exceed the threshold
	loop.tick(ctx, t0.Add(5*time.Hour))

	assert.Assert(t, loop.lastKnown == imstate.ClassificationStale)
	assert.EqualString(t, capturer.sent[0].Text,
		"No update since 2020-02-20T14:02:00Z (5h ago) - machine unreachable?")
}

func TestAgentModeForwardsIdleSeconds(t *testing.T) {
	requests := []string{}

	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())
	}))
	defer collector.Close()

	loop, capturer := newTestLoop(t, collector.URL)
	loop.measureIdle = func() (int64, error) { return 42, nil }

	loop.tick(context.Background(), t0)

	assert.EqualJson(t, requests, `[
  "/update?idle_seconds=42"
]`)

	// agent mode never classifies or notifies by itself
	assert.Assert(t, len(capturer.sent) == 0)
}

func TestAgentModeToleratesFailures(t *testing.T) {
	ctx := context.Background()

	// measurement fails: nothing sent, tick survives
	loop, _ := newTestLoop(t, "http://127.0.0.1:1") // nothing listens there
	loop.measureIdle = func() (int64, error) { return 0, errors.New("no display") }
	loop.tick(ctx, t0)

	// endpoint unreachable: logged, loop continues to next tick
	loop.measureIdle = func() (int64, error) { return 7, nil }
	loop.tick(ctx, t0)
}
