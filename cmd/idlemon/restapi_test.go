package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/function61/gokit/assert"
	"github.com/idlemon/idlemon/pkg/imstate"
)

func newTestApp(t *testing.T) (*app, *sendCapturer) {
	t.Helper()

	tracker := imstate.NewTracker(
		imstate.NewFileStore(filepath.Join(t.TempDir(), "state.json")),
		t0,
		nil)

	capturer := &sendCapturer{}
	notifier := newNotifier(capturer.send, leveled(nil, false))

	return &app{
		tracker:     tracker,
		interpreter: newCommandInterpreter(tracker, notifier, leveled(nil, false)),
		loop:        newMonitorLoop(tracker, notifier, "", 1*time.Minute, leveled(nil, false)),
		logl:        leveled(nil, false),
	}, capturer
}

func postSms(handler http.Handler, from string, body string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("From", from)
	form.Set("Body", body)

	req := httptest.NewRequest("POST", "/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSmsWebhook(t *testing.T) {
	app, capturer := newTestApp(t)
	handler := newWebhookHandler(app)

	rec := postSms(handler, "+15550001", "sub")

	assert.Assert(t, rec.Code == http.StatusOK)
	assert.EqualString(t, rec.Header().Get("Content-Type"), "text/xml")
	assert.EqualString(t, rec.Body.String(), emptyAckPayload)

	assert.Assert(t, app.tracker.IsSubscriber("+15550001"))
	assert.Assert(t, len(capturer.sent) == 1)
}

func TestSmsWebhookAcksEvenWithoutSender(t *testing.T) {
	app, capturer := newTestApp(t)
	handler := newWebhookHandler(app)

	rec := postSms(handler, "", "sub")

	// the provider always gets a well-formed ack, command or not
	assert.Assert(t, rec.Code == http.StatusOK)
	assert.EqualString(t, rec.Body.String(), emptyAckPayload)
	assert.Assert(t, len(capturer.sent) == 0)
}

func TestUpdateWebhook(t *testing.T) {
	app, _ := newTestApp(t)
	handler := newWebhookHandler(app)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/update?idle_seconds=120", nil))

	assert.Assert(t, rec.Code == http.StatusOK)

	// idle_since is computed as now - idle_seconds
	doc := app.tracker.Document()
	assert.Assert(t, doc.LastUpdate.Sub(doc.IdleSince) == 120*time.Second)
	assert.Assert(t, time.Since(doc.LastUpdate) < 10*time.Second)
}

func TestUpdateWebhookIgnoresMalformedInput(t *testing.T) {
	app, _ := newTestApp(t)
	handler := newWebhookHandler(app)

	before := app.tracker.Document()

	for _, path := range []string{"/update", "/update?idle_seconds=", "/update?idle_seconds=abc"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

		// logged and dropped; the caller still gets an empty success response
		assert.Assert(t, rec.Code == http.StatusOK)
		assert.EqualString(t, rec.Body.String(), "")
	}

	after := app.tracker.Document()
	assert.Assert(t, after.LastUpdate.Equal(before.LastUpdate))
	assert.Assert(t, after.IdleSince.Equal(before.IdleSince))
}

func TestStateEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	handler := newWebhookHandler(app)

	assert.Ok(t, app.tracker.AddSubscriber("+15550001"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/state", nil))

	assert.Assert(t, rec.Code == http.StatusOK)
	assert.EqualString(t, rec.Header().Get("Content-Type"), "application/json")
	assert.EqualString(t, rec.Body.String(), `{"subs":["+15550001"],"max_idle":86400,"idle_since":"2020-02-20T14:02:00Z","last_update":"2020-02-20T14:02:00Z"}
`)
}
