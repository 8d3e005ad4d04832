package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/function61/gokit/httputils"
	"github.com/function61/gokit/logex"
	"github.com/function61/gokit/taskrunner"
	"github.com/idlemon/idlemon/pkg/imstate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// the well-formed-but-empty acknowledgement the SMS provider expects for
// every webhook delivery, no matter how the command went
const emptyAckPayload = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// app wires the singleton pieces together; built once at startup and handed
// to both the webhook handlers and the background loop (no globals).
type app struct {
	tracker     *imstate.Tracker
	interpreter *commandInterpreter
	loop        *monitorLoop
	logl        *logex.Leveled
}

func newWebhookHandler(app *app) http.Handler {
	mux := httputils.NewMethodMux()

	// inbound command from the SMS provider: From = sender id, Body = raw text
	mux.POST.HandleFunc("/sms", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			app.logl.Error.Printf("/sms: parse form: %v", err)
		} else if sender := r.PostFormValue("From"); sender != "" {
			if err := app.interpreter.Handle(sender, r.PostFormValue("Body")); err != nil {
				app.logl.Error.Printf("/sms: %v", err)
			}
		}

		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, emptyAckPayload)
	})

	// fresh idle report: /update?idle_seconds=123
	mux.GET.HandleFunc("/update", func(w http.ResponseWriter, r *http.Request) {
		// malformed input is logged and dropped; the caller always gets an
		// empty success response
		raw := r.URL.Query().Get("idle_seconds")

		idleSeconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			app.logl.Error.Printf("/update: bad idle_seconds %q", raw)
			return
		}

		now := time.Now()

		if err := app.tracker.RecordUpdate(now.Add(-time.Duration(idleSeconds)*time.Second), now); err != nil {
			app.logl.Error.Printf("/update: %v", err)
			return
		}

		metricUpdatesReceived.Inc()
	})

	mux.GET.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		noCacheHeaders(w)

		handleJsonOutput(w, app.tracker.Document())
	})

	mux.GET.Handle("/metrics", promhttp.Handler())

	return mux
}

func serve(ctx context.Context, conf *config, logger *log.Logger, debug bool) error {
	tracker := imstate.NewTracker(
		imstate.NewFileStore(conf.stateFile),
		time.Now(),
		logex.Prefix("imstate", logger))

	notifier := newNotifier(smsSender(conf), leveled(logex.Prefix("notifier", logger), debug))

	app := &app{
		tracker:     tracker,
		interpreter: newCommandInterpreter(tracker, notifier, leveled(logex.Prefix("commands", logger), debug)),
		loop: newMonitorLoop(
			tracker,
			notifier,
			conf.agentURL,
			conf.interval,
			leveled(logex.Prefix("monitorloop", logger), debug)),
		logl: logex.Levels(logger),
	}

	if conf.agentURL != "" {
		app.logl.Info.Printf("agent mode, forwarding to %s", conf.agentURL)
	} else {
		app.logl.Info.Printf("standalone mode, max idle %ds", tracker.MaxIdle())
	}

	srv := &http.Server{
		Addr:    conf.listenAddr,
		Handler: newWebhookHandler(app),
	}

	tasks := taskrunner.New(ctx, logger)

	tasks.Start("listener "+srv.Addr, func(_ context.Context, _ string) error {
		return httputils.RemoveGracefulServerClosedError(srv.ListenAndServe())
	})

	tasks.Start("listenershutdowner", httputils.ServerShutdownTask(srv))

	tasks.Start("monitorloop", app.loop.task)

	return tasks.Wait()
}

// a non-debug logger still carries Info/Error; --debug adds the Debug stream
func leveled(logger *log.Logger, debug bool) *logex.Leveled {
	logl := logex.Levels(logger)
	if !debug {
		logl.Debug = logex.Discard
	}
	return logl
}

func handleJsonOutput(w http.ResponseWriter, output interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(output); err != nil {
		panic(err)
	}
}

func noCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, must-revalidate")
}
